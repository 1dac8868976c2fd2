package router

import (
	"time"
	"unilink/internal/config"
	"unilink/internal/db"
	"unilink/internal/handlers"
	"unilink/internal/middleware"
	"unilink/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 装配服务与路由。limiter 为 nil 时举报接口不限流。
func RegisterRoutes(r *gin.Engine, cfg *config.Config, limiter *middleware.RateLimiter, recount *services.RecountService) {
	// Services
	interactionSvc := services.NewInteractionService(db.DB)
	pollSvc := services.NewPollService(db.DB)
	moderationSvc := services.NewModerationService(db.DB, cfg.ReportHideThreshold)

	// Handlers
	postHandler := handlers.NewPostHandler(pollSvc, interactionSvc, recount)
	interactionHandler := handlers.NewInteractionHandler(interactionSvc, recount)
	pollHandler := handlers.NewPollHandler(pollSvc)
	moderationHandler := handlers.NewModerationHandler(moderationSvc)
	adminHandler := handlers.NewAdminHandler(moderationSvc)
	notificationHandler := handlers.NewNotificationHandler()

	// 公共路由 (Public Routes)
	r.GET("/", postHandler.List)        // 最新帖子
	r.GET("/p/:pid", postHandler.Detail) // 帖子详情

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/submit", postHandler.Create)                // 发布帖子
		authorized.POST("/p/:pid/comment", postHandler.CreateComment) // 发表评论
		authorized.DELETE("/comment/:cid", postHandler.DeleteComment) // 删除评论

		authorized.POST("/like/:pid", interactionHandler.ToggleLike) // 点赞/取消点赞
		authorized.POST("/save/:pid", interactionHandler.ToggleSave) // 收藏/取消收藏
		authorized.POST("/p/:pid/poll/vote", pollHandler.Vote)       // 投票/改票

		// 举报，按用户限流
		authorized.POST("/p/:pid/report",
			middleware.LimitPerUser(limiter, "report", cfg.ReportRateLimit,
				time.Duration(cfg.ReportRateWindow)*time.Second),
			moderationHandler.Report)

		authorized.GET("/notifications", notificationHandler.List)           // 我的通知
		authorized.POST("/notifications/:id/read", notificationHandler.Read) // 标记已读
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
	}

	// 举报处置后台 (Admin Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/reports", adminHandler.ListReported)            // 待处理举报列表
		admin.POST("/reports/:pid/restore", adminHandler.Restore)   // 恢复帖子
		admin.DELETE("/reports/:pid", adminHandler.PermanentDelete) // 永久下架
	}
}
