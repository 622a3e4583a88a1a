package decode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

const maxServices = 10

// Selector candidates per field, most explicit first.
var (
	firstNameSelectors = []string{
		"[data-testid='first-name']",
		"[itemprop='givenName']",
		".first-name",
		".firstname",
	}
	lastNameSelectors = []string{
		"[data-testid='last-name']",
		"[itemprop='familyName']",
		".last-name",
		".lastname",
	}
	fullNameSelectors = []string{
		"[data-testid='provider-name']",
		"[data-testid='name']",
		".provider-name",
		".pro-name",
		".contact-name",
		"[itemprop='name']",
		".name",
	}
	businessSelectors = []string{
		"[data-testid='business-name']",
		"[data-testid='company-name']",
		"[itemprop='legalName']",
		".business-name",
		".company-name",
		".company",
	}
	emailSelectors = []string{
		"[data-testid='email']",
		"[itemprop='email']",
		".email",
	}
	locationSelectors = []string{
		"[data-testid='location']",
		"[data-testid='provider-location']",
		"[itemprop='address']",
		".location",
		".provider-location",
		".address",
	}
	categorySelectors = []string{
		"[data-testid='category']",
		"[data-testid='service-category']",
		".category",
		".service-category",
		".provider-category",
	}
	ratingSelectors = []string{
		"[data-testid='rating']",
		"[itemprop='ratingValue']",
		".rating-value",
		".rating",
		".stars",
	}
	reviewSelectors = []string{
		"[data-testid='review-count']",
		"[itemprop='reviewCount']",
		".review-count",
		".reviews-count",
		".reviews",
	}
	descriptionSelectors = []string{
		"[data-testid='description']",
		"[itemprop='description']",
		".description",
		".provider-description",
		".bio",
		".about",
	}
	responseSelectors = []string{
		"[data-testid='response-time']",
		".response-time",
	}
	joinedSelectors = []string{
		"[data-testid='member-since']",
		".member-since",
		".joined",
	}
	// one group, so matches come back in document order
	serviceSelector = strings.Join([]string{
		"[data-testid='service']",
		"[class*='service-tag']",
		"[class*='specialty']",
		"[class*='skill']",
		".services li",
	}, ", ")
)

var (
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	floatRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	intRe     = regexp.MustCompile(`\d[\d,]*`)
	ratingRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d(?:\.\d+)?)\s*(?:/\s*5|out of 5|stars?)`),
		regexp.MustCompile(`(?i)rated\s+(\d(?:\.\d+)?)`),
	}
	reviewRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d[\d,]*)\s+reviews?`),
		regexp.MustCompile(`(?i)reviews?:\s*(\d[\d,]*)`),
	}
	responseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)responds?\s+(?:with)?in\s+(?:about\s+)?([^\n.|]+)`),
		regexp.MustCompile(`(?i)response time:?\s+([^\n.|]+)`),
	}
	joinedRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)member\s+since\s+([A-Za-z]*\s*\d{4})`),
		regexp.MustCompile(`(?i)joined\s+(?:in\s+)?([A-Za-z]*\s*\d{4})`),
		regexp.MustCompile(`(?i)on bark since\s+([A-Za-z]*\s*\d{4})`),
	}
	locationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)based in\s+([^\n|]+)`),
		regexp.MustCompile(`(?i)located in\s+([^\n|]+)`),
	}
	locationLabels = []string{"location:", "address:", "area:"}
	categoryLabels = []string{"category:", "service:"}
)

// Extractor turns card fragments into leads for one locale.
type Extractor struct {
	Locale config.Locale
	// PhoneProximity > 0 scopes the mobile/office keywords to that many
	// characters before each number.
	PhoneProximity int
}

// Extract never fails; fields that match no rule take their default.
func (e Extractor) Extract(f Fragment, sourceURL string) domain.ExtractedLead {
	card := f.Card
	text := f.Text()
	ph := e.Locale.Placeholders

	lead := domain.ExtractedLead{
		SourceURL: sourceURL,
		CardIndex: f.Index,
	}

	lead.PersonName = e.name(card)
	lead.BusinessName = e.business(card, lead.PersonName)
	lead.Phones = e.phones(card, text)
	lead.Email = e.email(card, text)

	lead.Location = firstText(card, locationSelectors)
	if lead.Location == "" {
		lead.Location = ExtractLabeled(text, locationLabels)
	}
	if lead.Location == "" {
		lead.Location = firstSubmatch(text, locationRes)
	}
	if lead.Location == "" {
		lead.Location = ph.Location
	}

	lead.Category = firstText(card, categorySelectors)
	if lead.Category == "" {
		lead.Category = ExtractLabeled(text, categoryLabels)
	}
	if lead.Category == "" {
		lead.Category = ph.Category
	}

	lead.Rating = e.rating(card, text)
	lead.ReviewCount = reviewCount(card, text)
	lead.Description = firstText(card, descriptionSelectors)
	lead.Services = services(card)

	lead.ResponseTime = firstText(card, responseSelectors)
	if lead.ResponseTime == "" {
		lead.ResponseTime = firstSubmatch(text, responseRes)
	}
	lead.JoinedDate = firstText(card, joinedSelectors)
	if lead.JoinedDate == "" {
		lead.JoinedDate = firstSubmatch(text, joinedRes)
	}

	lead.VerificationStatus = verification(card)
	return lead
}

func (e Extractor) name(card *goquery.Selection) domain.PersonName {
	if first := firstText(card, firstNameSelectors); first != "" {
		last := firstText(card, lastNameSelectors)
		if last == "" {
			last = DefaultLastName
		}
		return domain.PersonName{FirstName: first, LastName: last}
	}
	if full := firstText(card, fullNameSelectors); full != "" {
		return SplitFullName(full)
	}
	if full := firstAttr(card, []string{"[data-name]"}, "data-name"); full != "" {
		return SplitFullName(full)
	}
	return SplitFullName("")
}

func (e Extractor) business(card *goquery.Selection, n domain.PersonName) string {
	if b := firstText(card, businessSelectors); b != "" {
		return b
	}
	if !IsDefaultName(n) {
		if b := CleanText(n.Full()); b != "" {
			return b + " Services"
		}
	}
	return e.Locale.Placeholders.Business
}

func (e Extractor) phones(card *goquery.Selection, text string) domain.Phones {
	var hits []phoneHit

	card.Find("a[href^='tel:'], [data-phone]").Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr("data-phone")
		if !ok {
			raw, _ = s.Attr("href")
			raw = strings.TrimPrefix(raw, "tel:")
		}
		num := NormalizePhone(raw, e.Locale.Phone)
		if num == "" {
			return
		}
		ctx := ""
		if e.PhoneProximity > 0 {
			ctx = strings.ToLower(CleanText(s.Parent().Text()))
		}
		hits = append(hits, phoneHit{number: num, context: ctx})
	})

	hits = append(hits, scanPhones(text, e.Locale.Phone, e.PhoneProximity)...)
	return assignPhones(hits, text, e.PhoneProximity)
}

func (e Extractor) email(card *goquery.Selection, text string) string {
	if href := firstAttr(card, []string{"a[href^='mailto:']"}, "href"); href != "" {
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if emailRe.MatchString(addr) {
			return addr
		}
	}
	if v := emailRe.FindString(firstText(card, emailSelectors)); v != "" {
		return v
	}
	return emailRe.FindString(text)
}

func (e Extractor) rating(card *goquery.Selection, text string) float64 {
	candidates := []string{
		firstAttr(card, []string{"[data-rating]"}, "data-rating"),
		firstAttr(card, []string{"[itemprop='ratingValue']"}, "content"),
		floatRe.FindString(firstText(card, ratingSelectors)),
		firstSubmatch(text, ratingRes),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil && v >= 0 && v <= 5 {
			return v
		}
	}
	return e.Locale.Placeholders.Rating
}

func reviewCount(card *goquery.Selection, text string) int {
	candidates := []string{
		firstAttr(card, []string{"[data-review-count]"}, "data-review-count"),
		firstAttr(card, []string{"[itemprop='reviewCount']"}, "content"),
		intRe.FindString(firstText(card, reviewSelectors)),
		firstSubmatch(text, reviewRes),
	}
	for _, c := range candidates {
		c = strings.ReplaceAll(c, ",", "")
		if c == "" {
			continue
		}
		if v, err := strconv.Atoi(c); err == nil && v >= 0 {
			return v
		}
	}
	return 0
}

func services(card *goquery.Selection) []string {
	var out []string
	card.Find(serviceSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := CleanText(s.Text()); t != "" {
			out = append(out, t)
		}
		return len(out) < maxServices
	})
	return out
}

// verification reads the card markup case-insensitively: any "badge", or any
// "verified" that is not part of "unverified", marks the provider Verified.
// An element explicitly classed "unverified" or carrying
// data-verified="false" overrides the markup.
func verification(card *goquery.Selection) string {
	explicit := card.Find(".unverified, [data-verified='false']").Length() > 0 ||
		card.Is(".unverified, [data-verified='false']")
	if explicit {
		return domain.VerificationUnverified
	}

	markup, err := goquery.OuterHtml(card)
	if err != nil {
		return domain.VerificationUnverified
	}
	markup = strings.ToLower(markup)

	if strings.Contains(markup, "badge") {
		return domain.VerificationVerified
	}
	for rest := markup; ; {
		i := strings.Index(rest, "verified")
		if i < 0 {
			break
		}
		if !strings.HasSuffix(rest[:i], "un") {
			return domain.VerificationVerified
		}
		rest = rest[i+len("verified"):]
	}
	return domain.VerificationUnverified
}
