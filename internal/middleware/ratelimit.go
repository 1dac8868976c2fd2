package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
	"unilink/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 基于 Redis 的滑动窗口限流器，按 userId 计数并带显式 TTL。
// 计数放在进程外，多实例部署时限流结果一致。
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Allow INCR+EXPIRE 一个窗口键，返回是否放行和当前计数
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := "rl:" + key
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// LimitPerUser 返回按当前用户限流的 gin 中间件。
// limiter 为 nil（未配置 Redis）时直接放行；Redis 故障时放行并记日志，
// 限流器不成为主流程的单点。
func LimitPerUser(l *RateLimiter, action string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.rdb == nil {
			c.Next()
			return
		}
		u, exists := c.Get(CheckUserKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		user := u.(*models.User)

		key := fmt.Sprintf("%s:%d", action, user.ID)
		ok, n, err := l.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Printf("rate limiter unavailable for %s: %v", key, err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded (%d/%d)", n, limit),
			})
			return
		}
		c.Next()
	}
}
