package decode

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// blockAtoms end a line in the card text.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Br: true, atom.Tr: true, atom.Td: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Dd: true, atom.Dt: true,
}

// CardText renders the visible text of a selection one line per block
// element, skipping script and style content.
func CardText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Noscript {
				return
			}
		}
		block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	for _, ln := range strings.Split(b.String(), "\n") {
		if ln = CleanText(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}

// firstText returns the cleaned text of the first non-empty match among
// the candidate selectors, tried in order.
func firstText(card *goquery.Selection, candidates []string) string {
	for _, sel := range candidates {
		var out string
		card.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = CleanText(s.Text())
			return out == ""
		})
		if out != "" {
			return out
		}
	}
	return ""
}

// firstAttr is firstText for an attribute value.
func firstAttr(card *goquery.Selection, candidates []string, attr string) string {
	for _, sel := range candidates {
		var out string
		card.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr(attr)
			out = CleanText(v)
			return out == ""
		})
		if out != "" {
			return out
		}
	}
	return ""
}

// ExtractLabeled returns the text after the first "label:" found in s, cut at
// the end of the line. Labels match case-insensitively.
func ExtractLabeled(s string, labels []string) string {
	for _, lab := range labels {
		_, end := indexFold(s, lab)
		if end < 0 {
			continue
		}
		rest := s[end:]
		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}
		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}

// indexFold finds sub in s under Unicode case folding and returns the byte
// span of the match in s, or -1, -1.
func indexFold(s, sub string) (int, int) {
	n := utf8.RuneCountInString(sub)
	if n == 0 {
		return -1, -1
	}
	for i := range s {
		j := i
		for k := 0; k < n; k++ {
			if j >= len(s) {
				return -1, -1
			}
			_, w := utf8.DecodeRuneInString(s[j:])
			j += w
		}
		if strings.EqualFold(s[i:j], sub) {
			return i, j
		}
	}
	return -1, -1
}

// firstSubmatch returns capture group 1 of the first pattern that matches.
func firstSubmatch(s string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			if v := CleanText(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}
