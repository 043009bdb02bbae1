package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const signInRatePrefix = "rl:signin:"

// ErrRateLimited is the default response once a subject exceeds its budget.
var ErrRateLimited = fiber.NewError(http.StatusTooManyRequests, "too many attempts, try again later")

// SignInRateLimit limits OTP-issuing submissions per email (or client IP when
// no email is present) using Redis. Each accepted submission sends an email,
// so this caps mail volume per address.
func SignInRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	return SignInRateLimitWith(cache, maxPerMin, func(*fiber.Ctx) error { return ErrRateLimited })
}

// SignInRateLimitWith is SignInRateLimit with a custom response for limited
// requests. All limiters share one counter per subject.
func SignInRateLimitWith(cache *redis.Client, maxPerMin int, limitReached fiber.Handler) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Email string `json:"email" form:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}
		key := signInRatePrefix + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return limitReached(c)
		}
		return c.Next()
	}
}
