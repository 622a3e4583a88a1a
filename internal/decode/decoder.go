package decode

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/rank"
)

// Decoder turns a raw document into scored leads. It holds no per-call
// state, so one Decoder can serve concurrent documents.
type Decoder struct {
	Markers   []string
	Workers   int
	Extractor Extractor
	Scorer    rank.Scorer
}

func NewDecoder(loc config.Locale, p config.PipelineConfig) *Decoder {
	markers := p.CardMarkers
	if len(markers) == 0 {
		markers = config.DefaultCardMarkers
	}
	return &Decoder{
		Markers:   markers,
		Workers:   p.ExtractWorkers,
		Extractor: Extractor{Locale: loc, PhoneProximity: p.PhoneProximity},
		Scorer:    rank.NewLocaleScorer(loc),
	}
}

// Lead extracts one fragment and fills in the derived score and value.
func (d *Decoder) Lead(f Fragment, sourceURL string) domain.ExtractedLead {
	lead := d.Extractor.Extract(f, sourceURL)
	lead.LeadScore, _ = d.Scorer.Score(lead)
	lead.EstimatedValue = d.Scorer.EstimateValue(lead)
	return lead
}

// Decode returns one lead per card in document order. When ctx is done
// before every card was extracted it returns the leads finished so far,
// still in document order, together with ctx's error.
func (d *Decoder) Decode(ctx context.Context, doc domain.RawDocument) ([]domain.ExtractedLead, error) {
	frags := Segment(doc.HTML, d.Markers)
	if len(frags) == 0 {
		zap.L().Debug("decode: no provider cards", zap.String("url", doc.SourceURL))
		return nil, nil
	}

	leads := make([]domain.ExtractedLead, len(frags))
	done := make([]bool, len(frags))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Workers, 1))

	for i, f := range frags {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			leads[i], done[i] = d.safeLead(f, doc.SourceURL)
			return nil
		})
	}
	err := g.Wait()

	out := leads[:0]
	for i := range leads {
		if done[i] {
			out = append(out, leads[i])
		}
	}

	zap.L().Debug("decode: document decoded",
		zap.String("url", doc.SourceURL),
		zap.Int("cards", len(frags)),
		zap.Int("leads", len(out)),
	)
	return out, err
}

// safeLead keeps one malformed card from taking down the worker pool.
func (d *Decoder) safeLead(f Fragment, sourceURL string) (lead domain.ExtractedLead, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("decode: card extraction panicked",
				zap.String("url", sourceURL), zap.Int("card", f.Index), zap.Any("panic", r))
			ok = false
		}
	}()
	return d.Lead(f, sourceURL), true
}
