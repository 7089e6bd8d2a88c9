package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastygo/shoplist/api/transport"
	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/pkg/httpcontext"
)

// Middleware wraps a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// RateLimitConfig bounds requests per client IP. PerMinute <= 0 disables limiting.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
	MaxIPs    int
	TTL       time.Duration
}

// RateLimiter keeps one token bucket per client IP in an expiring LRU.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
}

func NewRateLimiter(cfg RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, cfg.PerMinute/10)
	}
	if cfg.MaxIPs <= 0 {
		cfg.MaxIPs = 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxIPs, nil, cfg.TTL),
		rate:     rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:    cfg.Burst,
		logger:   logger,
	}
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// Handler rejects over-limit requests with 429. A nil limiter passes everything.
func (rl *RateLimiter) Handler(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if rl == nil {
		return next
	}
	retryAfter := strconv.Itoa(int(max(1, time.Second.Seconds()/float64(rl.rate))))
	return func(ctx *fasthttp.RequestCtx) {
		ip := httpcontext.ClientIP(ctx)
		if rl.Allow(ip) {
			next(ctx)
			return
		}
		rl.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.ByteString("path", ctx.Path()))
		ctx.Response.Header.Set("Retry-After", retryAfter)
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(http.StatusTooManyRequests)
		ctx.SetBodyString(transport.NewError(string(domain.ErrCodeTooMany), "rate limit exceeded", nil).String())
	}
}
