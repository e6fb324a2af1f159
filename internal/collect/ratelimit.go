package collect

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// defaultBurst is the token bucket burst size per domain.
const defaultBurst = 3

// domainLimiters rate-limits outgoing requests per source domain so
// collection stays polite to each site regardless of worker count.
type domainLimiters struct {
	mu       sync.Mutex
	rps      float64
	limiters map[string]*rate.Limiter
}

func newDomainLimiters(requestsPerSecond float64) *domainLimiters {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &domainLimiters{
		rps:      requestsPerSecond,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (d *domainLimiters) Wait(ctx context.Context, host string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), defaultBurst)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
