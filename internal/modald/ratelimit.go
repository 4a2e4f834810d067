package modald

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimitConfig defines rate limits for a specific method or globally.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustainable rate (tokens added per second).
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst.
	BurstSize int
}

// DefaultRateLimits provides defaults for the modal service methods.
var DefaultRateLimits = map[string]RateLimitConfig{
	// Queue mutations
	FullMethod(MethodOpenDialog):             {RequestsPerSecond: 20, BurstSize: 40},
	FullMethod(MethodCloseDialog):            {RequestsPerSecond: 50, BurstSize: 100},
	FullMethod(MethodSetCloseOnInterstitial): {RequestsPerSecond: 50, BurstSize: 100},
	FullMethod(MethodCloseAll):               {RequestsPerSecond: 10, BurstSize: 20},

	// Host notifications
	FullMethod(MethodSetVisibility):      {RequestsPerSecond: 50, BurstSize: 100},
	FullMethod(MethodAttachInterstitial): {RequestsPerSecond: 20, BurstSize: 40},

	// Reads
	FullMethod(MethodGetSurface):   {RequestsPerSecond: 100, BurstSize: 200},
	FullMethod(MethodListSurfaces): {RequestsPerSecond: 100, BurstSize: 200},

	// Health
	FullMethod(MethodPing): {RequestsPerSecond: 1000, BurstSize: 1000},
}

// tokenBucket refills at ratePerSec up to maxTokens.
type tokenBucket struct {
	mu         sync.Mutex
	now        func() time.Time
	tokens     float64
	lastUpdate time.Time
	ratePerSec float64
	maxTokens  float64
	requests   int64
	denied     int64
}

func newTokenBucket(cfg RateLimitConfig, now func() time.Time) *tokenBucket {
	return &tokenBucket{
		now:        now,
		tokens:     float64(cfg.BurstSize),
		lastUpdate: now(),
		ratePerSec: cfg.RequestsPerSecond,
		maxTokens:  float64(cfg.BurstSize),
	}
}

// refillLocked returns the tokens available at t without consuming any.
func (tb *tokenBucket) refillLocked(t time.Time) float64 {
	tokens := tb.tokens + t.Sub(tb.lastUpdate).Seconds()*tb.ratePerSec
	if tokens > tb.maxTokens {
		tokens = tb.maxTokens
	}
	return tokens
}

// allow consumes a token if one is available.
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	t := tb.now()
	tb.tokens = tb.refillLocked(t)
	tb.lastUpdate = t
	tb.requests++

	if tb.tokens < 1 {
		tb.denied++
		return false
	}
	tb.tokens--
	return true
}

func (tb *tokenBucket) stats() (available float64, requests, denied int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.refillLocked(tb.now()), tb.requests, tb.denied
}

// RateLimiter applies per-method token buckets and an optional global one.
type RateLimiter struct {
	mu      sync.RWMutex
	now     func() time.Time
	buckets map[string]*tokenBucket
	configs map[string]RateLimitConfig

	globalBucket *tokenBucket
	globalConfig *RateLimitConfig

	enabled bool
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithMethodLimits sets custom limits for specific methods.
func WithMethodLimits(limits map[string]RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		for method, cfg := range limits {
			rl.configs[method] = cfg
		}
	}
}

// WithGlobalLimit sets a limit shared by all methods.
func WithGlobalLimit(cfg RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.globalConfig = &cfg
	}
}

// WithEnabled enables or disables rate limiting.
func WithEnabled(enabled bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.enabled = enabled
	}
}

// WithRateClock overrides the time source used to refill buckets.
func WithRateClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		if now != nil {
			rl.now = now
		}
	}
}

// NewRateLimiter creates a rate limiter seeded with DefaultRateLimits.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
		configs: make(map[string]RateLimitConfig),
		enabled: true,
	}
	for method, cfg := range DefaultRateLimits {
		rl.configs[method] = cfg
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.globalConfig != nil {
		rl.globalBucket = newTokenBucket(*rl.globalConfig, rl.now)
	}
	return rl
}

// Allow reports whether a call to method may proceed, consuming a token
// from the global bucket and the method's bucket.
func (rl *RateLimiter) Allow(method string) bool {
	if !rl.IsEnabled() {
		return true
	}
	if rl.globalBucket != nil && !rl.globalBucket.allow() {
		return false
	}
	bucket := rl.bucket(method)
	if bucket == nil {
		return true
	}
	return bucket.allow()
}

// bucket returns the method's bucket, creating it on first use. Methods
// without a configured limit have none.
func (rl *RateLimiter) bucket(method string) *tokenBucket {
	rl.mu.RLock()
	bucket, ok := rl.buckets[method]
	rl.mu.RUnlock()
	if ok {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, ok = rl.buckets[method]; ok {
		return bucket
	}
	cfg, ok := rl.configs[method]
	if !ok {
		return nil
	}
	bucket = newTokenBucket(cfg, rl.now)
	rl.buckets[method] = bucket
	return bucket
}

// MethodStats reports usage of one bucket.
type MethodStats struct {
	Method           string
	Available        float64
	RequestsPerSec   float64
	BurstSize        int
	TotalRequests    int64
	DeniedRequests   int64
	DeniedPercentage float64
}

func newMethodStats(method string, cfg RateLimitConfig, bucket *tokenBucket) MethodStats {
	ms := MethodStats{
		Method:         method,
		Available:      float64(cfg.BurstSize),
		RequestsPerSec: cfg.RequestsPerSecond,
		BurstSize:      cfg.BurstSize,
	}
	if bucket == nil {
		return ms
	}
	ms.Available, ms.TotalRequests, ms.DeniedRequests = bucket.stats()
	if ms.TotalRequests > 0 {
		ms.DeniedPercentage = float64(ms.DeniedRequests) / float64(ms.TotalRequests) * 100
	}
	return ms
}

// Stats returns statistics for every configured method, sorted by method.
func (rl *RateLimiter) Stats() []MethodStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := make([]MethodStats, 0, len(rl.configs))
	for method, cfg := range rl.configs {
		stats = append(stats, newMethodStats(method, cfg, rl.buckets[method]))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Method < stats[j].Method })
	return stats
}

// GlobalStats returns statistics for the global limit, or nil when none
// is configured.
func (rl *RateLimiter) GlobalStats() *MethodStats {
	if rl.globalBucket == nil {
		return nil
	}
	ms := newMethodStats("global", *rl.globalConfig, rl.globalBucket)
	return &ms
}

// SetEnabled enables or disables rate limiting at runtime.
func (rl *RateLimiter) SetEnabled(enabled bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.enabled = enabled
}

// IsEnabled returns whether rate limiting is currently enabled.
func (rl *RateLimiter) IsEnabled() bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.enabled
}

// UnaryServerInterceptor returns a gRPC unary interceptor that applies rate limiting.
func (rl *RateLimiter) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !rl.Allow(info.FullMethod) {
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded for method %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}
