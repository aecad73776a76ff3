package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	h "eventrsvp/internal/delivery/http/helpers"
)

const limiterIdleTTL = 15 * time.Minute

// IPRateLimiter applies a per-client-IP token bucket. Forwarding headers only pick the
// bucket when the peer is one of the trusted proxies.
type IPRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	trusted   []*net.IPNet
	stop      chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with an equal burst. perMinute <= 0
// disables limiting. Call Stop to end the background cleanup.
func NewIPRateLimiter(perMinute int, trustedProxies []*net.IPNet) *IPRateLimiter {
	l := &IPRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		trusted:   trustedProxies,
		stop:      make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Limit wraps next, answering 429 with Retry-After once the caller's bucket is empty.
func (l *IPRateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limiter := l.limiter(h.ClientIP(r, l.trusted))
		if limiter != nil && !limiter.Allow() {
			retry := time.Minute / time.Duration(l.perMinute)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

// Stop ends the cleanup goroutine.
func (l *IPRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *IPRateLimiter) limiter(key string) *rate.Limiter {
	if l.perMinute <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	l.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (l *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *IPRateLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}
