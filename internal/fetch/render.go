package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

// Renderer loads pages in headless Chrome, for listings that build their
// cards with JavaScript.
type Renderer struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	limiter     *HostLimiter
	timeout     time.Duration
}

func NewRenderer(cfg config.FetchConfig) *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		limiter:     NewHostLimiter(cfg.RatePerSec, cfg.Burst),
		timeout:     timeout,
	}
}

func (r *Renderer) Fetch(ctx context.Context, rawURL string) (domain.RawDocument, error) {
	if err := r.limiter.WaitURL(ctx, rawURL); err != nil {
		return domain.RawDocument{}, eris.Wrap(err, "render: rate limit")
	}

	taskCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	// stop the browser tab when the caller gives up
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return domain.RawDocument{}, eris.Wrapf(err, "render: %s", rawURL)
	}

	return domain.RawDocument{
		HTML:      html,
		SourceURL: CanonicalURL(rawURL),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
}

// New returns the renderer when cfg.Render is set, else the plain fetcher.
func New(cfg config.FetchConfig) (Fetcher, func()) {
	if cfg.Render {
		r := NewRenderer(cfg)
		return r, r.Close
	}
	return NewHTTPFetcher(cfg), func() {}
}
