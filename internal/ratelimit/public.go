package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

// DefaultPublicRate bounds anonymous catalog and cart traffic per client.
const DefaultPublicRate = "120-M"

// NewStore returns a Redis-backed limiter store, or an in-process store when
// no client is configured.
func NewStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: limiter.DefaultCleanUpInterval}), nil
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// NewPublic builds a fixed window per-IP limiter middleware for public routes.
func NewPublic(store limiter.Store, formatted string, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	if formatted == "" {
		formatted = DefaultPublicRate
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	lim := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(lim,
		stdlib.WithKeyGetter(func(r *http.Request) string { return common.ClientIP(r) }),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Msg("public rate limiter failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		}),
	)
	return mw.Handler, nil
}
