package ratelimiter

import (
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewRateLimit builds a rate-limiting middleware keyed by keyGetter.
func NewRateLimit(store limiter.Store, rate limiter.Rate, keyGetter stdlib.KeyGetter, options ...stdlib.Option) *stdlib.Middleware {
	limiter := limiter.New(store, rate)

	options = append([]stdlib.Option{stdlib.WithKeyGetter(keyGetter)}, options...)

	middleware := stdlib.NewMiddleware(limiter, options...)
	return middleware
}

// NewMemoryRateLimit is NewRateLimit over an in-process store; enough for a
// single instance guarding the webhook and checkout endpoints.
func NewMemoryRateLimit(limit int64, period time.Duration, keyGetter stdlib.KeyGetter, options ...stdlib.Option) *stdlib.Middleware {
	rate := limiter.Rate{
		Limit:  limit,
		Period: period,
	}

	return NewRateLimit(memory.NewStore(), rate, keyGetter, options...)
}
