package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/utils"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Example:
// r.POST("/login", limits.NewRateLimiter("10-2m", "login"), handler)
// r.POST("/signup", limits.CombinedRateLimiter("signup", "5-1m", "20-1h"), handler)

// RateLimiters builds Redis-backed limiters that share one client.
type RateLimiters struct {
	rdb *redis.Client
}

func NewRateLimiters(rdb *redis.Client) *RateLimiters {
	return &RateLimiters{rdb: rdb}
}

// limitKey identifies the caller: the signed-in user when the auth
// middleware ran first, the client IP otherwise.
func limitKey(c *gin.Context) string {
	if raw, ok := c.Get(utils.ContextUserIDKey); ok {
		if id, ok := raw.(uuid.UUID); ok {
			return "user:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}

func (r *RateLimiters) createRedisStore(routeID string, period time.Duration) (limiter.Store, error) {
	store, err := redisstore.NewStoreWithOptions(r.rdb, limiter.StoreOptions{
		Prefix:          fmt.Sprintf("rate_limiter:%s", routeID),
		MaxRetry:        3,
		CleanUpInterval: period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

func (r *RateLimiters) newLimiter(rateStr, routeID string) (*limiter.Limiter, error) {
	rate, err := ParseCustomRate(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := r.createRedisStore(routeID, rate.Period)
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// ParseCustomRate allows formats like "10-2m", "30-20m", "5-1h", "20-10s".
func ParseCustomRate(rateStr string) (limiter.Rate, error) {
	parts := strings.Split(rateStr, "-")
	if len(parts) != 2 {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid limit: %s", parts[0])
	}

	durationStr := parts[1]
	if len(durationStr) < 2 {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", durationStr)
	}
	units := map[string]time.Duration{"s": time.Second, "m": time.Minute, "h": time.Hour}
	unit, ok := units[durationStr[len(durationStr)-1:]]
	if !ok {
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", durationStr)
	}
	n, err := strconv.Atoi(durationStr[:len(durationStr)-1])
	if err != nil || n <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", durationStr)
	}

	return limiter.Rate{
		Period: time.Duration(n) * unit,
		Limit:  int64(limit),
	}, nil
}

func passThrough(c *gin.Context) { c.Next() }

func limitReached(c *gin.Context) {
	utils.AbortFail(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

// NewRateLimiter limits one route per caller. A bad rate string or store
// failure disables the limit rather than the route.
func (r *RateLimiters) NewRateLimiter(rateStr, routeID string) gin.HandlerFunc {
	lim, err := r.newLimiter(rateStr, routeID)
	if err != nil {
		logger.ErrorLogger.Errorf("Rate limiter for route %s disabled: %v", routeID, err)
		return passThrough
	}
	return ginmiddleware.NewMiddleware(lim,
		ginmiddleware.WithKeyGetter(limitKey),
		ginmiddleware.WithLimitReachedHandler(limitReached),
	)
}

// CombinedRateLimiter enforces several windows on one route; the request must
// pass all of them.
func (r *RateLimiters) CombinedRateLimiter(routeID string, rateStrings ...string) gin.HandlerFunc {
	var limiters []*limiter.Limiter
	for i, rateStr := range rateStrings {
		lim, err := r.newLimiter(rateStr, fmt.Sprintf("%s_%d", routeID, i))
		if err != nil {
			logger.ErrorLogger.Errorf("Rate %q for route %s disabled: %v", rateStr, routeID, err)
			continue
		}
		limiters = append(limiters, lim)
	}

	return func(c *gin.Context) {
		key := limitKey(c)
		for _, lim := range limiters {
			lctx, err := lim.Get(c.Request.Context(), key)
			if err != nil {
				logger.WarnLogger.Warnf("Rate limiter store error on %s: %v", routeID, err)
				continue
			}
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			if lctx.Reached {
				limitReached(c)
				return
			}
		}
		c.Next()
	}
}
