// Package fetch turns listing URLs into raw documents for the decoder.
package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

// Fetcher loads one page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (domain.RawDocument, error)
}

// HTTPFetcher does a plain GET per page.
type HTTPFetcher struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
	maxBytes  int64
}

func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "LeadHunt/1.0 (+local)"
	}
	return &HTTPFetcher{
		hc:        &http.Client{Timeout: timeout},
		limiter:   NewHostLimiter(cfg.RatePerSec, cfg.Burst),
		userAgent: ua,
		maxBytes:  cfg.MaxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (domain.RawDocument, error) {
	if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
		return domain.RawDocument{}, eris.Wrap(err, "fetch: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.RawDocument{}, eris.Wrapf(err, "fetch: build request %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := f.hc.Do(req)
	if err != nil {
		return domain.RawDocument{}, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return domain.RawDocument{}, eris.Errorf("fetch: %s status %d", rawURL, res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		zap.L().Warn("fetch: unexpected content type", zap.String("url", rawURL), zap.String("content_type", ct))
	}

	var body io.Reader = res.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(res.Body, f.maxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return domain.RawDocument{}, eris.Wrapf(err, "fetch: read %s", rawURL)
	}
	if f.maxBytes > 0 && int64(len(b)) > f.maxBytes {
		return domain.RawDocument{}, eris.Errorf("fetch: %s exceeds %d bytes", rawURL, f.maxBytes)
	}

	return domain.RawDocument{
		HTML:      string(b),
		SourceURL: CanonicalURL(rawURL),
		FetchedAt: time.Now().UTC(),
	}, nil
}
