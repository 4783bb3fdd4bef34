// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors   map[string]*visitor
	mtx        sync.Mutex
	rate       rate.Limit
	burst      int
	messageKey string
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		rate:       r,
		burst:      b,
		messageKey: i18n.KeyRateLimited,
	}
}

// WithMessage sets the i18n key used for the 429 body.
func (rl *RateLimiter) WithMessage(key string) *RateLimiter {
	rl.messageKey = key
	return rl
}

// Run evicts idle visitors until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())

		if !limiter.Allow() {
			utils.TooManyRequestsResponse(c, i18n.T(utils.GetLangFromContext(c), rl.messageKey))
			c.Abort()
			return
		}

		c.Next()
	}
}

// Limiters groups the limiters the router installs.
type Limiters struct {
	General *RateLimiter
	Auth    *RateLimiter
	Upload  *RateLimiter
}

// NewLimiters builds the general limiter from configuration. Token issuance and
// uploads get fixed, stricter budgets.
func NewLimiters(requestsPerSecond float64, burst int) *Limiters {
	return &Limiters{
		General: NewRateLimiter(rate.Limit(requestsPerSecond), burst),
		Auth:    NewRateLimiter(rate.Every(time.Minute/5), 5).WithMessage(i18n.KeyAuthRateLimited),
		Upload:  NewRateLimiter(rate.Every(time.Minute/10), 10),
	}
}

// Run starts the janitors of every limiter; they stop when ctx is cancelled.
func (l *Limiters) Run(ctx context.Context) {
	go l.General.Run(ctx)
	go l.Auth.Run(ctx)
	go l.Upload.Run(ctx)
}
