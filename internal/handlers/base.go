package handlers

import (
	"errors"
	"log"
	"net/http"
	"unilink/internal/db"
	"unilink/internal/models"
	"unilink/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JSONError 将服务层错误映射为 HTTP 状态码。
// 响应只带分类和面向用户的消息，底层存储错误只进日志。
func JSONError(c *gin.Context, err error) {
	var opErr *services.OpError
	if errors.As(err, &opErr) {
		if opErr.Cause != nil {
			log.Printf("%s", opErr.Error())
		}
		c.JSON(statusOf(opErr.Kind), gin.H{"error": opErr.Msg})
		return
	}
	log.Printf("unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func statusOf(kind error) int {
	switch {
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(kind, services.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// findPostByPid 按公开短 ID 查帖子，未找到时写 404 并返回 false
func findPostByPid(c *gin.Context) (*models.Post, bool) {
	pid := c.Param("pid")
	var post models.Post
	if err := db.DB.Where("pid = ?", pid).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		} else {
			log.Printf("lookup post %s: %v", pid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return nil, false
	}
	return &post, true
}
