package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

const rateLimitPolicyName = "call"

// Admission identifies one admitted request so its slot can be refunded.
type Admission struct {
	seq uint64
}

// Quota describes the limiter state right after an Admit call.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Duration // until the oldest admission leaves the window
}

type admissionEntry struct {
	seq uint64
	at  time.Time
}

// AdmissionLimiter admits at most limit requests in any sliding window.
// It keeps a log of admission times; all state is guarded by mu.
type AdmissionLimiter struct {
	mu      sync.Mutex
	clk     clock.Clock
	window  time.Duration
	limit   int
	nextSeq uint64
	log     []admissionEntry
}

// NewAdmissionLimiter creates a limiter. A nil clock means the wall clock.
func NewAdmissionLimiter(window time.Duration, limit int, clk clock.Clock) *AdmissionLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &AdmissionLimiter{
		clk:    clk,
		window: window,
		limit:  limit,
		log:    make([]admissionEntry, 0, max(limit, 0)),
	}
}

// Window returns the configured window length.
func (l *AdmissionLimiter) Window() time.Duration { return l.window }

// Limit returns the configured number of admissions per window.
func (l *AdmissionLimiter) Limit() int { return l.limit }

// Admit records an admission if the window has room. The check and the
// record happen under one lock, so concurrent callers can never exceed limit.
func (l *AdmissionLimiter) Admit() (Admission, Quota, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	l.evict(now)

	if len(l.log) >= l.limit {
		return Admission{}, Quota{Limit: l.limit, Remaining: 0, Reset: l.resetAfter(now)}, false
	}

	l.nextSeq++
	l.log = append(l.log, admissionEntry{seq: l.nextSeq, at: now})
	return Admission{seq: l.nextSeq}, Quota{
		Limit:     l.limit,
		Remaining: l.limit - len(l.log),
		Reset:     l.resetAfter(now),
	}, true
}

// Release gives back the slot taken by a. Releasing an admission that has
// already left the window, or releasing twice, is a no-op.
func (l *AdmissionLimiter) Release(a Admission) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.log {
		if e.seq == a.seq {
			l.log = append(l.log[:i], l.log[i+1:]...)
			return
		}
	}
}

// evict drops admissions outside (now-window, now].
func (l *AdmissionLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.log) && !l.log[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		l.log = append(l.log[:0], l.log[i:]...)
	}
}

func (l *AdmissionLimiter) resetAfter(now time.Time) time.Duration {
	if len(l.log) == 0 {
		return l.window
	}
	return l.log[0].at.Add(l.window).Sub(now)
}

// RateLimitMiddleware applies one shared limiter budget to every route it wraps.
// Responses with a status of 400 or above give their slot back.
func RateLimitMiddleware(limiter *AdmissionLimiter, logger *slog.Logger) func(next http.Handler) http.Handler {
	logger = logger.With("component", "ratelimit_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			admission, quota, ok := limiter.Admit()
			setRateLimitHeaders(w.Header(), limiter.Window(), quota)

			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(quota.Reset)))
				logger.WarnContext(ctx, "Request rejected by rate limiter",
					"request_id", chi_middleware.GetReqID(ctx), "path", r.URL.Path, "limit", quota.Limit, "reset", quota.Reset)
				writeStatusMessage(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			completed := false
			defer func() {
				// A panicking handler counts as failed.
				if !completed || ww.Status() >= http.StatusBadRequest {
					limiter.Release(admission)
				}
			}()
			next.ServeHTTP(ww, r)
			completed = true
		})
	}
}

func setRateLimitHeaders(h http.Header, window time.Duration, q Quota) {
	h.Set("RateLimit-Policy", fmt.Sprintf(`"%s";q=%d;w=%d`, rateLimitPolicyName, q.Limit, ceilSeconds(window)))
	h.Set("RateLimit", fmt.Sprintf(`"%s";r=%d;t=%d`, rateLimitPolicyName, q.Remaining, ceilSeconds(q.Reset)))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
