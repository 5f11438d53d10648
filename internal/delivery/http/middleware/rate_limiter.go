package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	rateWindow       = time.Minute
	rateSweepPeriod  = 5 * time.Minute
	rateEntryMaxIdle = 2 * time.Minute
)

// rateWindowEntry counts requests from one IP inside the current window.
type rateWindowEntry struct {
	count   int
	started time.Time
}

// RateLimiter caps each client IP at maxRequests per minute. Executions
// are expensive (a process spawn each), so /run sits behind this.
func RateLimiter(maxRequests int) gin.HandlerFunc {
	var mu sync.Mutex
	windows := make(map[string]*rateWindowEntry)

	// Sweep idle entries so one-off clients don't accumulate forever.
	go func() {
		ticker := time.NewTicker(rateSweepPeriod)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			now := time.Now()
			for ip, entry := range windows {
				if now.Sub(entry.started) > rateEntryMaxIdle {
					delete(windows, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		entry := windows[ip]
		if entry == nil || now.Sub(entry.started) > rateWindow {
			windows[ip] = &rateWindowEntry{count: 1, started: now}
			mu.Unlock()
			c.Next()
			return
		}
		if entry.count >= maxRequests {
			mu.Unlock()
			c.Header("Retry-After", fmt.Sprintf("%d", int(rateWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded: maximum %d requests per minute", maxRequests),
			})
			return
		}
		entry.count++
		mu.Unlock()
		c.Next()
	}
}
