package intake

import (
	"context"
	"sync/atomic"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/decode"
	"leadhunt-engine/internal/domain"
)

// Current holds the active pipeline so the locale can be replaced while the
// engine is serving. In-flight documents finish on the pipeline they started
// with.
type Current struct {
	p atomic.Pointer[Pipeline]
}

func NewCurrent(p *Pipeline) *Current {
	c := &Current{}
	c.p.Store(p)
	return c
}

func (c *Current) Load() *Pipeline { return c.p.Load() }

func (c *Current) Store(p *Pipeline) { c.p.Store(p) }

func (c *Current) Decode(ctx context.Context, doc domain.RawDocument) Result {
	return c.Load().Decode(ctx, doc)
}

func (c *Current) ProcessAndStore(ctx context.Context, doc domain.RawDocument) Result {
	return c.Load().ProcessAndStore(ctx, doc)
}

// WithLocale returns a copy of p that decodes and scores with loc. Store,
// metrics and hooks are shared.
func (p *Pipeline) WithLocale(loc config.Locale, pc config.PipelineConfig) *Pipeline {
	next := *p
	next.Decoder = decode.NewDecoder(loc, pc)
	next.Locale = loc
	return &next
}
