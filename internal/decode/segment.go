package decode

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fragment is one provider card in document order.
type Fragment struct {
	Index int
	Card  *goquery.Selection
}

// Text is the card's visible text, one line per block element.
func (f Fragment) Text() string { return CardText(f.Card) }

// cardMatcher reports whether an element carries one of the marker class
// tokens. A BEM modifier such as provider-card--featured counts; a wrapper
// like provider-cards or an element like provider-card__name does not.
func cardMatcher(markers []string) func(int, *goquery.Selection) bool {
	var tokens []string
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			tokens = append(tokens, m)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		for _, c := range strings.Fields(strings.ToLower(class)) {
			for _, m := range tokens {
				if c == m || strings.HasPrefix(c, m+"--") {
					return true
				}
			}
		}
		return false
	}
}

// Segment parses html and returns every element whose class attribute
// contains one of the marker tokens. Matches nested inside another match
// stay part of the outer card. Unparseable or empty input yields nil.
func Segment(htmlDoc string, markers []string) []Fragment {
	if strings.TrimSpace(htmlDoc) == "" {
		return nil
	}
	isCard := cardMatcher(markers)
	if isCard == nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlDoc))
	if err != nil {
		return nil
	}

	var out []Fragment
	doc.Find("[class]").FilterFunction(isCard).Each(func(_ int, s *goquery.Selection) {
		if s.Parents().FilterFunction(isCard).Length() > 0 {
			return
		}
		out = append(out, Fragment{Index: len(out), Card: s})
	})
	return out
}
