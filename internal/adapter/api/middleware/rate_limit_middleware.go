package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimiter throttles requests per client IP. It backs the coarse edge
// limits; per-user action limits live with the use cases.
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.RWMutex
	rate     int           // requests per window
	window   time.Duration // time window
}

type Visitor struct {
	tokens     int
	lastSeen   time.Time
	blocked    bool
	blockUntil time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		window:   window,
	}

	go rl.cleanup()

	return rl
}

// RateLimitMiddleware returns Echo middleware for rate limiting
func (rl *RateLimiter) RateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if blocked, resetTime := rl.isBlocked(ip); blocked {
				log.Printf("RATE LIMIT: Blocked request from IP %s (reset in %v)", ip, time.Until(resetTime))

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": int(time.Until(resetTime).Seconds()),
				})
			}

			rl.consume(ip)

			return next(c)
		}
	}
}

// isBlocked checks if IP should be blocked and returns reset time
func (rl *RateLimiter) isBlocked(ip string) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	visitor, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &Visitor{
			tokens:   rl.rate - 1,
			lastSeen: time.Now(),
			blocked:  false,
		}
		return false, time.Time{}
	}

	now := time.Now()

	if visitor.blocked && now.Before(visitor.blockUntil) {
		return true, visitor.blockUntil
	}

	if visitor.blocked && now.After(visitor.blockUntil) {
		visitor.blocked = false
		visitor.tokens = rl.rate
		visitor.lastSeen = now
	}

	// Refill tokens based on time passed
	timePassed := now.Sub(visitor.lastSeen)
	tokensToAdd := int(timePassed / rl.window * time.Duration(rl.rate))
	visitor.tokens += tokensToAdd

	if visitor.tokens > rl.rate {
		visitor.tokens = rl.rate
	}

	visitor.lastSeen = now

	if visitor.tokens <= 0 {
		visitor.blocked = true
		visitor.blockUntil = now.Add(rl.window)
		log.Printf("SECURITY: Rate limiting activated for IP %s", ip)
		return true, visitor.blockUntil
	}

	return false, time.Time{}
}

// consume reduces available tokens for IP
func (rl *RateLimiter) consume(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if visitor, exists := rl.visitors[ip]; exists {
		visitor.tokens--
		visitor.lastSeen = time.Now()
	}
}

// cleanup removes old visitors to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Hour)

		rl.mu.Lock()
		now := time.Now()
		for ip, visitor := range rl.visitors {
			if now.Sub(visitor.lastSeen) > 2*time.Hour {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Edge rate limiters per endpoint class.
var (
	// General API limiter: 120 requests per minute.
	GeneralLimiter = NewRateLimiter(120, time.Minute)

	// Token minting limiter: 10 attempts per minute.
	TokenLimiter = NewRateLimiter(10, time.Minute)
)

func GeneralRateLimit() echo.MiddlewareFunc {
	return GeneralLimiter.RateLimitMiddleware()
}

func TokenRateLimit() echo.MiddlewareFunc {
	return TokenLimiter.RateLimitMiddleware()
}
