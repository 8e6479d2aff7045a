package httpmiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SimpleTokenBucket is an in-memory per-key token bucket refilled per minute.
// Idle buckets expire once they would have refilled completely.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time
	mu       sync.Mutex
	state    *gocache.Cache
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	idle := time.Minute
	if perMinute > 0 {
		if full := time.Duration(capacity) * time.Minute / time.Duration(perMinute); full > idle {
			idle = full
		}
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    gocache.New(idle, idle),
	}
}

// Len reports how many keys currently hold a bucket.
func (l *SimpleTokenBucket) Len() int { return l.state.ItemCount() }

func (l *SimpleTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	v, ok := l.state.Get(key)
	if !ok {
		l.state.SetDefault(key, &bucket{tokens: l.capacity - 1, last: now})
		return l.capacity > 0, nil
	}
	b := v.(*bucket)
	// Touch the entry so an active key keeps its bucket.
	l.state.SetDefault(key, b)
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RedisWindow is a fixed one-minute window counter shared across replicas.
type RedisWindow struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

// NewRedisWindow allows limit requests per key per wall-clock minute.
func NewRedisWindow(client *redis.Client, limit int, prefix string) *RedisWindow {
	if prefix == "" {
		prefix = "regportal:ratelimit:"
	}
	return &RedisWindow{client: client, limit: limit, prefix: prefix, now: time.Now}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / 60
	k := l.prefix + key + ":" + strconv.FormatInt(window, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.limit), nil
}

// RateLimit enforces per-client-IP limits. Limiter errors fail open and are logged.
func RateLimit(l Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("ratelimit.error", slog.String("error", err.Error()))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}
