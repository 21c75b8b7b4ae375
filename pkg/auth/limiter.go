package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// LimitConfig tunes the per-client login rate limit.
type LimitConfig struct {
	RPS   float64
	Burst int
}

// LimiterPool hands out one rate.Limiter per client key (remote IP).
type LimiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg LimitConfig
}

func NewLimiterPool(cfg LimitConfig) *LimiterPool {
	return &LimiterPool{cfg: cfg}
}

func (p *LimiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

// Allow reports whether the caller identified by key is within its rate.
func (p *LimiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
