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

type InteractionHandler struct {
	interactions *services.InteractionService
	recount      *services.RecountService
}

func NewInteractionHandler(interactions *services.InteractionService, recount *services.RecountService) *InteractionHandler {
	return &InteractionHandler{interactions: interactions, recount: recount}
}

// ToggleLike 点赞/取消点赞
func (h *InteractionHandler) ToggleLike(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	res, err := h.interactions.ToggleLike(c.Request.Context(), post.ID, user.ID)
	if err != nil {
		JSONError(c, err)
		return
	}

	// 失效详情页缓存并安排一次计数校准
	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))
	h.recount.ScheduleRecount(post.ID)

	c.JSON(http.StatusOK, res)
}

// ToggleSave 收藏/取消收藏
func (h *InteractionHandler) ToggleSave(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	res, err := h.interactions.ToggleSave(c.Request.Context(), post.ID, user.ID)
	if err != nil {
		JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
