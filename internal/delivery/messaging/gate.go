package messaging

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

// Options are the admission limits shared by every transport.
type Options struct {
	HandlerTimeout        time.Duration
	RateLimit             float64 // requests per second
	RateBurst             int
	MaxConcurrentRequests int64
}

func DefaultOptions() Options {
	return Options{
		HandlerTimeout:        5 * time.Second,
		RateLimit:             5000,
		RateBurst:             1000,
		MaxConcurrentRequests: 10000,
	}
}

// gate applies rate limiting, the concurrency cap and the handler timeout
// before a request reaches the dispatcher.
type gate struct {
	dispatcher *rpc.Dispatcher
	limiter    *rate.Limiter
	opts       Options
}

func newGate(d *rpc.Dispatcher, opts Options) *gate {
	defaults := DefaultOptions()
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = defaults.HandlerTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaults.RateLimit
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaults.RateBurst
	}
	if opts.MaxConcurrentRequests <= 0 {
		opts.MaxConcurrentRequests = defaults.MaxConcurrentRequests
	}
	return &gate{
		dispatcher: d,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		opts:       opts,
	}
}

func (g *gate) handle(ctx context.Context, req *rpc.Request) (rpc.Response, int) {
	if !g.limiter.Allow() {
		return rpc.Failure(errs.New(errs.CodeRequestLimit, "Too many requests")), http.StatusTooManyRequests
	}
	if g.dispatcher.Metrics().ActiveRequests() >= g.opts.MaxConcurrentRequests {
		return rpc.Failure(errs.New(errs.CodeConnectionFailed, "Server overloaded")), http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.HandlerTimeout)
	defer cancel()
	return g.dispatcher.Handle(ctx, req)
}
