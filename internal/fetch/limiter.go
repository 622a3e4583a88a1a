package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter paces requests per site. www.bark.com and bark.com share a
// bucket; URLs without a host share one fallback bucket.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewHostLimiter allows perSec requests per site. perSec <= 0 disables
// limiting.
func NewHostLimiter(perSec float64, burst int) *HostLimiter {
	every := rate.Inf
	if perSec > 0 {
		every = rate.Limit(perSec)
	}
	return &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   every,
		burst:   max(burst, 1),
	}
}

func siteKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func (hl *HostLimiter) bucket(site string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	b, ok := hl.buckets[site]
	if !ok {
		b = rate.NewLimiter(hl.every, hl.burst)
		hl.buckets[site] = b
	}
	return b
}

// WaitURL blocks until the site of raw may be requested again.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	return hl.bucket(siteKey(raw)).Wait(ctx)
}

// Sites reports how many sites have been seen.
func (hl *HostLimiter) Sites() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.buckets)
}
