package decode

import (
	"regexp"
	"sort"
	"strings"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

// phonePatterns is the text battery, most explicit shape first. On equal
// start offsets the earlier pattern wins.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d{1,3}[ .-]?\(?\d{1,4}\)?(?:[ .-]?\d{2,4}){2,4}`), // international
	regexp.MustCompile(`\(\d{3}\)[ \t]*\d{3}[ .-]?\d{4}`),                    // (555) 123-4567
	regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),                              // 555-123-4567
	regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{4}\b`),                            // 555.123.4567
	regexp.MustCompile(`\b0\d{2,4} \d{3,4} ?\d{3,4}\b`),                      // 020 7946 0958
	regexp.MustCompile(`\b\d{10,11}\b`),                                      // bare digits
}

var (
	mobileWords   = []string{"mobile", "cell"}
	landlineWords = []string{"office", "business"}
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NationalNumber reduces raw to the locale's national significant number,
// or "" when it does not fit the locale.
func NationalNumber(raw string, p config.PhoneFormat) string {
	d := digitsOnly(raw)
	n := p.NationalLength
	if n <= 0 {
		return ""
	}

	switch {
	case len(d) == n:
		if p.TrunkPrefix != "" && strings.HasPrefix(d, p.TrunkPrefix) {
			return ""
		}
		return d
	case len(d) == len(p.CountryCode)+n && strings.HasPrefix(d, p.CountryCode):
		return d[len(p.CountryCode):]
	case p.TrunkPrefix != "" && len(d) == len(p.TrunkPrefix)+n && strings.HasPrefix(d, p.TrunkPrefix):
		return d[len(p.TrunkPrefix):]
	case p.TrunkPrefix != "" && len(d) == len(p.CountryCode)+len(p.TrunkPrefix)+n &&
		strings.HasPrefix(d, p.CountryCode+p.TrunkPrefix):
		// +44 (0)20 ...
		return d[len(p.CountryCode)+len(p.TrunkPrefix):]
	}
	return ""
}

// FormatNational lays digits into the locale layout.
func FormatNational(national string, p config.PhoneFormat) string {
	if national == "" || len(national) != strings.Count(p.Layout, "#") {
		return ""
	}
	var b strings.Builder
	i := 0
	for _, r := range p.Layout {
		if r == '#' {
			b.WriteByte(national[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizePhone canonicalizes raw for the locale; "" means not a phone.
func NormalizePhone(raw string, p config.PhoneFormat) string {
	return FormatNational(NationalNumber(raw, p), p)
}

type phoneHit struct {
	number  string
	context string // lowercased text preceding the match, for proximity mode
}

type span struct{ start, end int }

// scanPhones runs the pattern battery over text and returns normalized
// numbers in document order. Overlapping matches are dropped.
func scanPhones(text string, p config.PhoneFormat, proximity int) []phoneHit {
	type match struct {
		span
		pattern int
		raw     string
	}
	var ms []match
	for i, re := range phonePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			ms = append(ms, match{span: span{loc[0], loc[1]}, pattern: i, raw: text[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].start != ms[j].start {
			return ms[i].start < ms[j].start
		}
		return ms[i].pattern < ms[j].pattern
	})

	var taken []span
	overlaps := func(s span) bool {
		for _, t := range taken {
			if s.start < t.end && t.start < s.end {
				return true
			}
		}
		return false
	}

	var hits []phoneHit
	for _, m := range ms {
		if overlaps(m.span) {
			continue
		}
		num := NormalizePhone(m.raw, p)
		if num == "" {
			continue
		}
		taken = append(taken, m.span)

		ctx := ""
		if proximity > 0 {
			from := m.start - proximity
			if from < 0 {
				from = 0
			}
			ctx = strings.ToLower(text[from:m.start])
		}
		hits = append(hits, phoneHit{number: num, context: ctx})
	}
	return hits
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// assignPhones fills the slots first-write-wins. With proximity == 0 a
// keyword anywhere in the card marks the first number; otherwise only the
// text just before each number counts.
func assignPhones(hits []phoneHit, cardText string, proximity int) domain.Phones {
	var out domain.Phones
	seen := map[string]bool{}
	low := strings.ToLower(cardText)

	for _, h := range hits {
		if seen[h.number] {
			continue
		}
		seen[h.number] = true

		if out.Primary == "" {
			out.Primary = h.number
		}

		scope := low
		if proximity > 0 {
			scope = h.context
		}
		if out.Mobile == "" && containsAny(scope, mobileWords) {
			out.Mobile = h.number
		}
		if out.Landline == "" && containsAny(scope, landlineWords) {
			out.Landline = h.number
		}
	}
	return out
}
