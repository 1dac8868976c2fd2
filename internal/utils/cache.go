package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// TTLCache 带过期时间的本地 LRU 缓存。
// 只缓存各用户共享的只读数据（帖子详情、票数分布），
// 任何写操作后由调用方显式 Delete 失效。
type TTLCache struct {
	lruCache *lru.Cache[string, cacheItem]
}

var cacheInstance *TTLCache

// GetCache 获取单例缓存实例
func GetCache() *TTLCache {
	if cacheInstance == nil {
		l, err := lru.New[string, cacheItem](500)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = &TTLCache{lruCache: l}
	}
	return cacheInstance
}

// Set 设置缓存，ttl 为过期时长
func (c *TTLCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，不存在或已过期返回 nil
func (c *TTLCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.data
}

// Delete 删除指定缓存
func (c *TTLCache) Delete(key string) {
	c.lruCache.Remove(key)
}
