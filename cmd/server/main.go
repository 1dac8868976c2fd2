package main

import (
	"log"
	"unilink/internal/config"
	"unilink/internal/db"
	"unilink/internal/middleware"
	"unilink/internal/router"
	"unilink/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	// 计数校准后台服务
	recount := services.NewRecountService(db.DB)
	recount.Start()

	// Redis 限流器，未配置时举报接口不限流
	var limiter *middleware.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = middleware.NewRateLimiter(rdb)
		log.Printf("Rate limiter enabled via redis at %s", cfg.RedisAddr)
	}

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions，账号模块与本服务共享同一会话
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("unilink_session", store))

	// Middleware
	r.Use(middleware.LoadUser())

	// Routes
	router.RegisterRoutes(r, cfg, limiter, recount)

	log.Printf("unilink server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
