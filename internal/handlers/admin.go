package handlers

import (
	"fmt"
	"net/http"
	"unilink/internal/middleware"
	"unilink/internal/models"
	"unilink/internal/services"
	"unilink/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 举报处置后台。路由层已套 AdminRequired。
type AdminHandler struct {
	moderation *services.ModerationService
}

func NewAdminHandler(moderation *services.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// ListReported 待处理举报列表
func (h *AdminHandler) ListReported(c *gin.Context) {
	posts, err := h.moderation.GetReportedPosts(c.Request.Context())
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reported_posts": posts})
}

// Restore 恢复被隐藏的帖子并清空举报
func (h *AdminHandler) Restore(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	restored, err := h.moderation.RestoreReportedPost(c.Request.Context(), post.ID, admin.ID)
	if err != nil {
		JSONError(c, err)
		return
	}

	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))

	c.JSON(http.StatusOK, gin.H{"restored": restored})
}

// PermanentDelete 永久下架帖子（终态，保留审计记录）
func (h *AdminHandler) PermanentDelete(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	deleted, err := h.moderation.PermanentlyDeleteReportedPost(c.Request.Context(), post.ID, admin.ID)
	if err != nil {
		JSONError(c, err)
		return
	}

	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
