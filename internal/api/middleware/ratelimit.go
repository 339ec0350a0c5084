package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eventease/server/internal/config"
	"github.com/eventease/server/internal/metrics"
)

// LoginRateLimit throttles login attempts per client IP. Over-limit
// requests get a 429 with a Retry-After hint instead of a redirect so
// scripted attempts see an unambiguous signal.
func LoginRateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg.LoginPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := store.limiter(clientKey(r))
			if limiter != nil && !limiter.Allow() {
				metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too many login attempts. Try again shortly.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	stop      chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute int) *limiterStore {
	store := &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		stop:      make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	if s.perMinute <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	interval := time.Minute / time.Duration(s.perMinute)
	limiter := rate.NewLimiter(rate.Every(interval), s.perMinute)
	s.limiters[key] = &limiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

// cleanupLoop drops limiter entries not seen in 15 minutes so the map
// cannot grow without bound.
func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ttl := 15 * time.Minute

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	close(s.stop)
}

// clientKey identifies the client by direct connection IP. Forwarding
// headers are ignored; they are trivially spoofed without a trusted
// proxy in front.
func clientKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
