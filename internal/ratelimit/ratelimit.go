// Package ratelimit provides rate limiting for the PitchDesk API.
//
// Two layers:
//   - an IP-keyed token bucket applied to the whole router (abuse control)
//   - per-company fixed-window counters checked against the entitlement
//     gate's effective per-minute/per-day ceiling on chat turns
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
)

// Config tunes the router-level token bucket.
type Config struct {
	RequestsPerMinute int           // steady-state refill rate per key
	BurstSize         int           // bucket capacity
	CleanupInterval   time.Duration // how often idle buckets are dropped
}

// DefaultConfig suits a single production instance.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		BurstSize:         20,
		CleanupInterval:   time.Minute,
	}
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter keeps one token bucket per caller key.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
}

// New starts a limiter, including its background cleanup loop. Call
// Stop when shutting down.
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Stop halts the cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * time.Minute)
			l.mu.Lock()
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow consumes one token from key's bucket, reporting false when the
// bucket is empty.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: float64(l.cfg.BurstSize - 1), lastSeen: now}
		return true
	}

	refill := now.Sub(b.lastSeen).Seconds() * float64(l.cfg.RequestsPerMinute) / 60.0
	b.tokens = min(b.tokens+refill, float64(l.cfg.BurstSize))
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Middleware rate limits by IP.
// Widget requests carry a widget key; keying on it gives each embedded
// widget its own bucket instead of sharing one per office NAT.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if wk := c.GetHeader("X-Widget-Key"); wk != "" {
			key = "widget:" + wk[:min(20, len(wk))]
		}

		if !l.Allow(key) {
			metrics.RateLimitedTotal.WithLabelValues("ip").Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. Please slow down.",
				"retry_after": 1,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
