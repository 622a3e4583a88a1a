// internal/rank/locale_scorer.go
package rank

import (
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

const (
	baseScore = 50
	maxScore  = 100
)

type tier struct {
	above  float64
	points int
	signal string
}

// Highest tier only; the lists are ordered from the top.
var (
	ratingTiers = []tier{
		{4.5, 25, "top-rated"},
		{4.0, 20, "highly-rated"},
		{3.5, 15, "well-rated"},
		{3.0, 10, "rated"},
	}
	reviewTiers = []tier{
		{50, 20, "many-reviews"},
		{20, 15, "reviews"},
		{10, 10, "some-reviews"},
		{5, 5, "few-reviews"},
	}
	serviceTiers = []tier{
		{5, 10, "broad-services"},
		{2, 5, "services"},
	}
)

func pickTier(v float64, tiers []tier) (int, string) {
	for _, t := range tiers {
		if v > t.above {
			return t.points, t.signal
		}
	}
	return 0, ""
}

// LocaleScorer scores and values leads against one locale's tables.
type LocaleScorer struct {
	Locale config.Locale

	printer *message.Printer
}

func NewLocaleScorer(loc config.Locale) *LocaleScorer {
	tag, err := language.Parse(loc.Language)
	if err != nil {
		zap.L().Warn("rank: unknown locale language, using en-US",
			zap.String("language", loc.Language), zap.Error(err))
		tag = language.AmericanEnglish
	}
	return &LocaleScorer{Locale: loc, printer: message.NewPrinter(tag)}
}

func (s *LocaleScorer) Score(lead domain.ExtractedLead) (int, []string) {
	score := baseScore
	var signals []string

	add := func(points int, signal string) {
		if points == 0 {
			return
		}
		score += points
		signals = append(signals, signal)
	}

	add(pickTier(lead.Rating, ratingTiers))
	add(pickTier(float64(lead.ReviewCount), reviewTiers))
	if lead.Verified() {
		add(10, "verified")
	}
	if lead.Phones.Any() {
		add(8, "phone")
	}
	if lead.Email != "" {
		add(7, "email")
	}

	rt := strings.ToLower(lead.ResponseTime)
	switch {
	case strings.Contains(rt, "hour") || strings.Contains(rt, "minute"):
		add(10, "fast-response")
	case strings.Contains(rt, "day"):
		add(5, "response")
	}

	add(pickTier(float64(len(lead.Services)), serviceTiers))

	cat := strings.ToLower(lead.Category)
	for _, kw := range s.Locale.HighValueCategories {
		if kw != "" && strings.Contains(cat, kw) {
			add(10, "high-value-category")
			break
		}
	}

	return clamp(score, 0, maxScore), signals
}

// CategoryMultiplier returns the multiplier of the first keyword found in
// the category, or 1.
func (s *LocaleScorer) CategoryMultiplier(category string) float64 {
	cat := strings.ToLower(category)
	for _, m := range s.Locale.CategoryMultipliers {
		if m.Keyword != "" && strings.Contains(cat, m.Keyword) {
			return m.Multiplier
		}
	}
	return 1.0
}

// Value is the unformatted, rounded estimate.
func (s *LocaleScorer) Value(lead domain.ExtractedLead) int64 {
	v := s.Locale.BaseValue * s.CategoryMultiplier(lead.Category)

	switch {
	case lead.Rating > 4.5 && lead.ReviewCount > 20:
		v *= 1.3
	case lead.Rating > 4.0 && lead.ReviewCount > 10:
		v *= 1.15
	}
	if lead.Verified() {
		v *= 1.1
	}
	return int64(math.Round(v))
}

func (s *LocaleScorer) EstimateValue(lead domain.ExtractedLead) string {
	return s.FormatMoney(s.Value(lead))
}

// FormatMoney renders n with the locale's currency symbol and digit grouping.
func (s *LocaleScorer) FormatMoney(n int64) string {
	p := s.printer
	if p == nil {
		p = message.NewPrinter(language.AmericanEnglish)
	}
	return s.Locale.CurrencySymbol + p.Sprintf("%d", n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
