package intake

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/decode"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/metrics"
)

// ContactCreator persists one contact. Implementations return
// domain.ErrDuplicateContact when the SourceID is already stored.
type ContactCreator interface {
	CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error)
}

// Result is what one document produced. Leads holds every extracted lead,
// stored or not.
type Result struct {
	Leads       []domain.ExtractedLead `json:"leads"`
	StoredCount int                    `json:"storedCount"`
	Rejected    int                    `json:"rejected"`
	Duplicates  int                    `json:"duplicates"`
	Failed      int                    `json:"failed"`
	Contacts    []domain.Contact       `json:"contacts,omitempty"`
}

type Pipeline struct {
	Decoder *decode.Decoder
	Locale  config.Locale
	Store   ContactCreator
	Source  string
	// Timeout bounds one ProcessAndStore call; 0 disables it.
	Timeout time.Duration
	Metrics *metrics.Metrics
	// OnStored runs after each contact is created.
	OnStored func(domain.Contact)
}

func NewPipeline(loc config.Locale, p config.PipelineConfig, store ContactCreator, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		Decoder: decode.NewDecoder(loc, p),
		Locale:  loc,
		Store:   store,
		Source:  p.Source,
		Timeout: time.Duration(p.DocumentTimeoutSecs) * time.Second,
		Metrics: m,
	}
}

// Decode extracts and scores leads without storing anything. An interrupted
// decode returns the leads extracted before ctx ended.
func (p *Pipeline) Decode(ctx context.Context, doc domain.RawDocument) Result {
	leads, err := p.Decoder.Decode(ctx, doc)
	if err != nil {
		zap.L().Warn("intake: decode interrupted",
			zap.String("url", doc.SourceURL), zap.Int("leads", len(leads)), zap.Error(err))
	}
	p.Metrics.DocumentDecoded(len(leads))
	return Result{Leads: leads}
}

// ProcessAndStore decodes doc and stores every valid lead. Data problems and
// per-lead store failures are counted, logged and never returned.
func (p *Pipeline) ProcessAndStore(ctx context.Context, doc domain.RawDocument) Result {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	res := p.Decode(ctx, doc)
	if p.Store == nil {
		return res
	}

	for _, lead := range res.Leads {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("intake: document deadline reached, remaining leads not stored",
				zap.String("url", doc.SourceURL), zap.Int("card", lead.CardIndex), zap.Error(err))
			break
		}

		if ok, why := Check(lead, p.Locale.Placeholders); !ok {
			res.Rejected++
			p.Metrics.LeadRejected(why)
			zap.L().Debug("intake: lead rejected",
				zap.String("source", p.Source),
				zap.String("reason", why),
				zap.Int("card", lead.CardIndex),
				zap.String("name", lead.PersonName.Full()),
				zap.String("business", lead.BusinessName),
			)
			continue
		}

		fields := ContactFromLead(lead, p.Source, p.Locale)
		c, err := p.create(ctx, fields)
		switch {
		case errors.Is(err, domain.ErrDuplicateContact):
			res.Duplicates++
			p.Metrics.ContactDuplicate()
			continue
		case err != nil:
			res.Failed++
			p.Metrics.ContactFailed()
			zap.L().Error("intake: create contact failed",
				zap.String("source", p.Source),
				zap.String("name", lead.PersonName.Full()),
				zap.String("business", lead.BusinessName),
				zap.String("source_id", fields.SourceID),
				zap.Error(err),
			)
			continue
		}

		res.StoredCount++
		res.Contacts = append(res.Contacts, c)
		p.Metrics.ContactStored(lead.LeadScore)
		if p.OnStored != nil {
			p.OnStored(c)
		}
	}

	zap.L().Info("intake: document processed",
		zap.String("source", p.Source),
		zap.String("url", doc.SourceURL),
		zap.Int("leads", len(res.Leads)),
		zap.Int("stored", res.StoredCount),
		zap.Int("rejected", res.Rejected),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
	)
	return res
}

// create isolates one store call, panics included.
func (p *Pipeline) create(ctx context.Context, f domain.ContactFields) (c domain.Contact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("contact store panic: %v", r)
		}
	}()
	return p.Store.CreateContact(ctx, f)
}
