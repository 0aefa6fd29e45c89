package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
)

type slidingWindow struct {
	mu         sync.Mutex
	timestamps []int64
}

func (w *slidingWindow) allow(limit int, window time.Duration) bool {
	now := time.Now().UnixNano()
	cutoff := now - window.Nanoseconds()

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= limit {
		return false
	}
	w.timestamps = append(w.timestamps, now)
	return true
}

var rateLimiters sync.Map

// RateLimitPerSubject throttles a route per authenticated subject with a
// sliding window. Requests without a credential fall back to the client IP.
func RateLimitPerSubject(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if cred, ok := CredentialFrom(c); ok {
			key = cred.Subject.String()
		}

		entryAny, _ := rateLimiters.LoadOrStore(key, &slidingWindow{
			timestamps: make([]int64, 0, limit),
		})
		if !entryAny.(*slidingWindow).allow(limit, window) {
			response.Fail(c, 429, response.KindTooManyRequests, "rate limit exceeded, slow down")
			return
		}

		c.Next()
	}
}
