package rank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

func scorer(t *testing.T, name string) *LocaleScorer {
	t.Helper()
	loc, ok := config.BuiltinLocale(name)
	require.True(t, ok)
	return NewLocaleScorer(loc)
}

func TestScore_Tiers(t *testing.T) {
	s := scorer(t, "us")

	bare := domain.ExtractedLead{Rating: 3.0, Category: "General Services"}
	score, signals := s.Score(bare)
	assert.Equal(t, 50, score)
	assert.Empty(t, signals)

	tests := []struct {
		name string
		lead domain.ExtractedLead
		want int
	}{
		{"rating 4.6", domain.ExtractedLead{Rating: 4.6}, 75},
		{"rating 4.5 is not above 4.5", domain.ExtractedLead{Rating: 4.5}, 70},
		{"rating 3.6", domain.ExtractedLead{Rating: 3.6}, 65},
		{"reviews 51", domain.ExtractedLead{ReviewCount: 51}, 70},
		{"reviews 6", domain.ExtractedLead{ReviewCount: 6}, 55},
		{"verified", domain.ExtractedLead{VerificationStatus: domain.VerificationVerified}, 60},
		{"phone and email", domain.ExtractedLead{Phones: domain.Phones{Mobile: "x"}, Email: "a@b.co"}, 65},
		{"minutes", domain.ExtractedLead{ResponseTime: "within 30 minutes"}, 60},
		{"days", domain.ExtractedLead{ResponseTime: "2 days"}, 55},
		{"six services", domain.ExtractedLead{Services: []string{"a", "b", "c", "d", "e", "f"}}, 60},
		{"three services", domain.ExtractedLead{Services: []string{"a", "b", "c"}}, 55},
		{"high value category", domain.ExtractedLead{Category: "Professional Services"}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := s.Score(tt.lead)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	s := scorer(t, "us")
	rng := rand.New(rand.NewSource(42))
	cats := []string{"Legal", "Marketing", "Cleaning", "", "Business Services"}
	times := []string{"", "1 hour", "3 days", "a week"}

	for i := 0; i < 1000; i++ {
		lead := domain.ExtractedLead{
			Rating:       rng.Float64() * 5,
			ReviewCount:  rng.Intn(500),
			Category:     cats[rng.Intn(len(cats))],
			ResponseTime: times[rng.Intn(len(times))],
			Services:     make([]string, rng.Intn(11)),
		}
		if rng.Intn(2) == 0 {
			lead.VerificationStatus = domain.VerificationVerified
		}
		if rng.Intn(2) == 0 {
			lead.Email = "x@y.com"
		}
		if rng.Intn(2) == 0 {
			lead.Phones.Primary = "p"
		}

		got, _ := s.Score(lead)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)

		again, _ := s.Score(lead)
		assert.Equal(t, got, again)
	}

	top := domain.ExtractedLead{
		Rating: 5, ReviewCount: 100, VerificationStatus: domain.VerificationVerified,
		Phones: domain.Phones{Primary: "p"}, Email: "e@x.io", ResponseTime: "1 hour",
		Services: make([]string, 10), Category: "Marketing",
	}
	got, signals := s.Score(top)
	assert.Equal(t, 100, got)
	assert.Contains(t, signals, "top-rated")
	assert.Contains(t, signals, "high-value-category")
}

func TestEstimateValue(t *testing.T) {
	us := scorer(t, "us")
	uk := scorer(t, "uk")

	lead := domain.ExtractedLead{
		Category:           "Digital Marketing",
		Rating:             4.9,
		ReviewCount:        47,
		VerificationStatus: domain.VerificationVerified,
	}
	assert.Equal(t, "$3,003", us.EstimateValue(lead))
	assert.Equal(t, "£2,002", uk.EstimateValue(lead))

	assert.Equal(t, "$2,700", us.EstimateValue(domain.ExtractedLead{Category: "Legal advice"}))
	assert.Equal(t, "$1,050", us.EstimateValue(domain.ExtractedLead{Category: "Maths tutoring"}))
	assert.Equal(t, "$1,500", us.EstimateValue(domain.ExtractedLead{Category: "Dog walking"}))
	// 1500 * 1.15
	assert.Equal(t, "$1,725", us.EstimateValue(domain.ExtractedLead{Category: "x", Rating: 4.2, ReviewCount: 11}))
}

func TestCategoryMultiplier_Priority(t *testing.T) {
	s := scorer(t, "us")
	// "legal" is listed before "consult"
	assert.Equal(t, 1.8, s.CategoryMultiplier("Legal Consulting"))
	assert.Equal(t, 1.5, s.CategoryMultiplier("IT Services"))
	assert.Equal(t, 1.0, s.CategoryMultiplier(""))
}

func TestEstimateValue_Monotonic(t *testing.T) {
	s := scorer(t, "us")
	ratings := []float64{0, 3.0, 4.0, 4.01, 4.5, 4.51, 5}
	reviews := []int{0, 10, 11, 20, 21, 100}

	for _, verified := range []string{domain.VerificationVerified, domain.VerificationUnverified} {
		for ri, r := range ratings {
			for ci, c := range reviews {
				base := domain.ExtractedLead{Category: "Marketing", Rating: r, ReviewCount: c, VerificationStatus: verified}
				v := s.Value(base)
				if ri+1 < len(ratings) {
					up := base
					up.Rating = ratings[ri+1]
					assert.GreaterOrEqual(t, s.Value(up), v)
				}
				if ci+1 < len(reviews) {
					up := base
					up.ReviewCount = reviews[ci+1]
					assert.GreaterOrEqual(t, s.Value(up), v)
				}
			}
		}
	}
}

func TestFormatMoney(t *testing.T) {
	s := scorer(t, "us")
	assert.Equal(t, "$0", s.FormatMoney(0))
	assert.Equal(t, "$1,234,567", s.FormatMoney(1234567))

	bad := NewLocaleScorer(config.Locale{Language: "!!", CurrencySymbol: "€"})
	assert.Equal(t, "€12,000", bad.FormatMoney(12000))
}
