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

type PollHandler struct {
	polls *services.PollService
}

func NewPollHandler(polls *services.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

type voteRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
}

// Vote 投票或改票，返回最新票数分布
func (h *PollHandler) Vote(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option_id is required"})
		return
	}

	res, err := h.polls.VotePollOption(c.Request.Context(), post.ID, user.ID, req.OptionID)
	if err != nil {
		JSONError(c, err)
		return
	}

	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))

	c.JSON(http.StatusOK, res)
}
