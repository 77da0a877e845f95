package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterTableSize = 10_000

// RateLimiter hands out one token bucket per client IP. Least recently seen IPs are evicted.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	clients *lru.Cache
}

func NewRateLimiter(perSecond float64, burst int) (*RateLimiter, error) {
	clients, err := lru.New(limiterTableSize)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{limit: rate.Limit(perSecond), burst: burst, clients: clients}, nil
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.clients.Get(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.clients.Add(key, lim)
	return lim
}

// Allow reports whether key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// Handler rejects over-limit clients with 429.
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			log.WithFields(log.Fields{"ip": c.IP(), "path": c.Path()}).Warn("⛔ [RateLimit] too many requests")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		}
		return c.Next()
	}
}
