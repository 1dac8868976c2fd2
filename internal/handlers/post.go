package handlers

import (
	"fmt"
	"net/http"
	"time"
	"unilink/internal/db"
	"unilink/internal/middleware"
	"unilink/internal/models"
	"unilink/internal/services"
	"unilink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PostHandler 帖子的创建/浏览和评论。
// 帖子管理本身不是互动核心，这里只保留让核心可被完整使用的最小入口。
type PostHandler struct {
	polls        *services.PollService
	interactions *services.InteractionService
	recount      *services.RecountService
}

func NewPostHandler(polls *services.PollService, interactions *services.InteractionService, recount *services.RecountService) *PostHandler {
	return &PostHandler{polls: polls, interactions: interactions, recount: recount}
}

type createPostRequest struct {
	Title        string     `json:"title" binding:"required"`
	Content      string     `json:"content"`
	PollQuestion string     `json:"poll_question"`
	PollOptions  []string   `json:"poll_options"`
	PollEndsAt   *time.Time `json:"poll_ends_at"`
}

// Create 发布帖子，可附带一个投票
func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if req.PollQuestion != "" && len(req.PollOptions) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a poll needs at least two options"})
		return
	}

	post := models.Post{
		Pid:          utils.RandShortID(8),
		UserID:       user.ID,
		Title:        req.Title,
		Content:      req.Content,
		PollQuestion: req.PollQuestion,
		PollEndsAt:   req.PollEndsAt,
	}
	for _, text := range req.PollOptions {
		post.PollOptions = append(post.PollOptions, models.PollOption{Text: text})
	}

	// 帖子和投票选项一起落库
	if err := db.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Detail 帖子详情。被隐藏/下架的帖子只有作者和管理员可见。
func (h *PostHandler) Detail(c *gin.Context) {
	post, ok := findPostByPid(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)

	if post.IsHiddenByReports || post.IsModerated {
		if user == nil || (user.ID != post.UserID && !user.IsAdmin()) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
	}

	// 浏览量原子自增
	db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + 1"))

	// 共享部分（正文渲染、票数分布）走缓存，个人状态每次实时查
	cacheKey := fmt.Sprintf("post:detail:shared:%s", post.Pid)
	shared, _ := utils.GetCache().Get(cacheKey).(gin.H)
	if shared == nil {
		var author models.User
		db.DB.First(&author, post.UserID)

		shared = gin.H{
			"post":         post,
			"author":       author.Username,
			"content_html": utils.RenderMarkdown(post.Content),
		}
		if post.HasPoll() {
			if res, err := h.polls.Results(c.Request.Context(), post.ID); err == nil {
				shared["poll"] = res
			}
		}
		utils.GetCache().Set(cacheKey, shared, 5*time.Minute)
	}

	out := gin.H{}
	for k, v := range shared {
		out[k] = v
	}
	if user != nil {
		out["liked"] = h.interactions.IsLiked(c.Request.Context(), post.ID, user.ID)
		out["saved"] = h.interactions.IsSaved(c.Request.Context(), post.ID, user.ID)
		if post.HasPoll() {
			out["my_vote"] = h.polls.CurrentVote(c.Request.Context(), post.ID, user.ID)
		}
	}

	c.JSON(http.StatusOK, out)
}

// List 最新帖子，被隐藏/下架的不出现在列表里
func (h *PostHandler) List(c *gin.Context) {
	var posts []models.Post
	db.DB.Where("is_hidden_by_reports = ? AND is_moderated = ?", false, false).
		Order("created_at DESC").
		Limit(30).
		Find(&posts)
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComment 发表评论，评论行和计数器在同一事务里更新
func (h *PostHandler) CreateComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	post, ok := findPostByPid(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	comment := models.Comment{
		Cid:     utils.RandShortID(8),
		PostID:  post.ID,
		UserID:  user.ID,
		Content: req.Content,
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create comment"})
		return
	}

	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))
	h.recount.ScheduleRecount(post.ID)

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment 删除自己的评论（管理员可删任意评论）
func (h *PostHandler) DeleteComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	cid := c.Param("cid")

	var comment models.Comment
	if err := db.DB.Where("cid = ?", cid).First(&comment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		del := tx.Delete(&models.Comment{}, comment.ID)
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count",
				gorm.Expr("CASE WHEN comments_count > 0 THEN comments_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}

	var post models.Post
	if err := db.DB.Select("pid").First(&post, comment.PostID).Error; err == nil {
		utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Pid))
	}
	h.recount.ScheduleRecount(comment.PostID)

	c.Status(http.StatusOK)
}
