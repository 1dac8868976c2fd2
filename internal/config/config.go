package config

import (
	"os"
	"strconv"
)

// Config 集中注入的运行参数。举报隐藏阈值等此前散落在代码里的常量
// 统一从环境变量读取，便于按环境调整。
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string // 为空则不启用基于 Redis 的限流

	SessionSecret string

	// ReportHideThreshold 帖子被自动隐藏所需的举报数
	ReportHideThreshold int

	// ReportRateLimit 每个用户在 ReportRateWindow 秒内允许提交的举报数
	ReportRateLimit  int64
	ReportRateWindow int
}

// Load 从环境变量装配配置，缺省值与开发环境对齐
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		SessionSecret:       getEnv("SESSION_SECRET", "secret_key_change_me"),
		ReportHideThreshold: getEnvInt("REPORT_HIDE_THRESHOLD", 3),
		ReportRateLimit:     int64(getEnvInt("REPORT_RATE_LIMIT", 5)),
		ReportRateWindow:    getEnvInt("REPORT_RATE_WINDOW", 3600),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
