package middleware

import (
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"
)

func newCtx(ip string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Forwarded-For", ip)
	ctx.Request.SetRequestURI("/items")
	return ctx
}

func ok(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(http.StatusOK) }

func TestRateLimiterDisabled(t *testing.T) {
	if rl := NewRateLimiter(RateLimitConfig{}, nil); rl != nil {
		t.Fatal("expected nil limiter when disabled")
	}
	var rl *RateLimiter
	h := rl.Handler(ok)
	for i := 0; i < 50; i++ {
		ctx := newCtx("10.0.0.1")
		h(ctx)
		if ctx.Response.StatusCode() != http.StatusOK {
			t.Fatalf("request %d blocked by disabled limiter", i)
		}
	}
}

func TestRateLimiterBlocksPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 2}, nil)
	h := rl.Handler(ok)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		ctx := newCtx("10.0.0.1")
		h(ctx)
		statuses = append(statuses, ctx.Response.StatusCode())
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK || statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	other := newCtx("10.0.0.2")
	h(other)
	if other.Response.StatusCode() != http.StatusOK {
		t.Fatal("other IPs must have their own bucket")
	}

	blocked := newCtx("10.0.0.1")
	h(blocked)
	if len(blocked.Response.Header.Peek("Retry-After")) == 0 {
		t.Fatal("expected Retry-After header")
	}
}

func TestChainOrderAndAccessLog(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	h := Chain(ok, mark("outer"), nil, AccessLog(nil), mark("inner"))
	ctx := newCtx("10.0.0.1")
	h(ctx)

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected order: %v", order)
	}
	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatal("expected request id header from access log")
	}
}
