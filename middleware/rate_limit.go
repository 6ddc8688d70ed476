package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kgr33n/kblog/utils"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	limiterMu  sync.Mutex
	limiters   = map[string]*ipLimiter{}
	cleanupRun sync.Once
)

func getLimiter(ip string, perMinute int) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()

	if l, ok := limiters[ip]; ok {
		l.lastSeen = time.Now()
		return l.limiter
	}
	l := &ipLimiter{
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		lastSeen: time.Now(),
	}
	limiters[ip] = l
	return l.limiter
}

// startLimiterCleanup evicts limiters not seen for ten minutes so the map
// does not grow with every client ever observed.
func startLimiterCleanup() {
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			limiterMu.Lock()
			for ip, l := range limiters {
				if time.Since(l.lastSeen) > 10*time.Minute {
					delete(limiters, ip)
				}
			}
			limiterMu.Unlock()
		}
	}()
}

// RateLimit applies a per-client-IP token bucket of perMinute requests.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 120
	}
	cleanupRun.Do(startLimiterCleanup)
	return func(c *gin.Context) {
		if !getLimiter(c.ClientIP(), perMinute).Allow() {
			utils.Error(c, http.StatusTooManyRequests, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
