package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/pkg/response"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a per-caller request budget. Authenticated callers are
// keyed by principal id, anonymous ones by remote host. Stale limiters are
// evicted on a slow sweep to bound memory.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*limiterEntry)
		lastGC   = time.Now()
	)

	limit := rate.Limit(float64(perMinute) / 60.0)
	burst := perMinute
	if burst < 1 {
		burst = 1
	}

	take := func(key string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastGC) > 10*time.Minute {
			for k, entry := range limiters {
				if now.Sub(entry.lastSeen) > 10*time.Minute {
					delete(limiters, k)
				}
			}
			lastGC = now
		}

		entry, ok := limiters[key]
		if !ok {
			entry = &limiterEntry{limiter: rate.NewLimiter(limit, burst)}
			limiters[key] = entry
		}
		entry.lastSeen = now
		return entry.limiter.Allow()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if authCtx, ok := GetAuthContext(r.Context()); ok {
				key = "p:" + authCtx.PrincipalID
			} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = "ip:" + host
			} else {
				key = "ip:" + r.RemoteAddr
			}

			if !take(key) {
				response.DomainError(w, domain.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
