package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"akkord/internal/config"
)

// limiterSet держит отдельный лимитер на каждый API-ключ (или адрес клиента).
type limiterSet struct {
	cfg      config.APIRateLimitConfig
	limiters *sync.Map // map[string]*rate.Limiter
}

func newLimiterSet(cfg config.APIRateLimitConfig) limiterSet {
	return limiterSet{cfg: cfg, limiters: &sync.Map{}}
}

func (l limiterSet) allow(key string) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l limiterSet) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
