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

type ModerationHandler struct {
	moderation *services.ModerationService
}

func NewModerationHandler(moderation *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

type reportRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Details string `json:"details"`
}

// Report 举报帖子。理由/补充说明按纯文本存储，剥掉所有 HTML。
func (h *ModerationHandler) Report(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	res, err := h.moderation.ReportPost(c.Request.Context(), post.ID, user.ID,
		utils.SanitizeText(req.Reason), utils.SanitizeText(req.Details))
	if err != nil {
		JSONError(c, err)
		return
	}

	if res.WasAutoHidden {
		utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))
	}

	c.JSON(http.StatusCreated, res)
}
