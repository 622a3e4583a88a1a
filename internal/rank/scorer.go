package rank

import "leadhunt-engine/internal/domain"

type Scorer interface {
	// Score returns the 0-100 lead score and the signals that contributed.
	Score(lead domain.ExtractedLead) (score int, signals []string)
	// EstimateValue returns the currency-formatted revenue estimate.
	EstimateValue(lead domain.ExtractedLead) string
}
