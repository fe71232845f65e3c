package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL = 10 * time.Minute
	// sweepEvery is the number of bucket lookups between idle sweeps.
	sweepEvery = 4096
)

// keyFunc selects the bucket a request is charged against.
type keyFunc func(*gin.Context) string

// KeyByIP buckets requests by client IP.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// KeyByIPAndClass buckets requests by client IP and by whether they create
// mappings. Redirect traffic from one client then cannot starve its creates.
func KeyByIPAndClass() keyFunc {
	return func(c *gin.Context) string {
		class := "read"
		if c.Request.Method == http.MethodPost {
			class = "write"
		}
		return class + ":" + c.ClientIP()
	}
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	// RPS is the refill rate in tokens per second. Zero denies once the
	// burst is spent.
	RPS float64
	// Burst is the bucket size; values <= 0 become 1.
	Burst int
	// Key defaults to KeyByIP.
	Key keyFunc
	// Exempt lists exact paths that bypass the limiter (probes, scrapes).
	Exempt []string
	// IdleTTL evicts buckets unused for this long. Defaults to 10 minutes.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. It is safe for concurrent use.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	key    keyFunc
	exempt map[string]struct{}
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter builds a RateLimiter from opts.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Limit(opts.RPS),
		burst:   opts.Burst,
		key:     opts.Key,
		exempt:  make(map[string]struct{}, len(opts.Exempt)),
		ttl:     opts.IdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if rl.burst <= 0 {
		rl.burst = 1
	}
	if rl.key == nil {
		rl.key = KeyByIP()
	}
	if rl.ttl <= 0 {
		rl.ttl = defaultIdleTTL
	}
	for _, p := range opts.Exempt {
		rl.exempt[p] = struct{}{}
	}
	return rl
}

// limiterFor returns the bucket for key, creating it on first use. Every
// sweepEvery lookups idle buckets are dropped first, so a stale bucket
// is replaced by a full one.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.sweepLocked(now)
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Sweep drops buckets idle for at least the configured TTL and returns how
// many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweepLocked(rl.now())
}

func (rl *RateLimiter) sweepLocked(now time.Time) int {
	n := 0
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.ttl {
			delete(rl.buckets, k)
			n++
		}
	}
	return n
}

// Handler enforces the limit. Denied requests get 429 with Retry-After and
// the standard error envelope:
//
//	{ "request_id": "...", "code": "too_many_requests", "message": "rate limit exceeded" }
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	retryAfter := strconv.Itoa(rl.retryAfterSeconds())
	return func(c *gin.Context) {
		if _, ok := rl.exempt[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if rl.limiterFor(rl.key(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfterSeconds is the time to refill one token, rounded up, at least 1.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(rl.limit))))
}
