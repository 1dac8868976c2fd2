package models

import (
	"time"
)

type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Pid     string `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`

	// 冗余计数器，必须始终等于对应账本表的行数
	LikesCount    int `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int `gorm:"not null;default:0" json:"comments_count"`
	Views         int `gorm:"not null;default:0" json:"views"` // 浏览/点击量
	ReportCount   int `gorm:"not null;default:0" json:"report_count"`

	// 举报隐藏与管理员处置状态
	IsHiddenByReports bool       `gorm:"not null;default:false;index" json:"is_hidden_by_reports"`
	HiddenAt          *time.Time `json:"hidden_at"`
	IsModerated       bool       `gorm:"not null;default:false" json:"is_moderated"`
	ModeratedAt       *time.Time `json:"moderated_at"`
	ModeratorID       *uint      `json:"moderator_id"`

	// 投票贴字段，PollQuestion 为空表示普通帖子
	PollQuestion string       `gorm:"size:200" json:"poll_question,omitempty"`
	PollEndsAt   *time.Time   `json:"poll_ends_at,omitempty"`
	PollOptions  []PollOption `gorm:"constraint:OnDelete:CASCADE;" json:"poll_options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPoll 判断帖子是否附带投票
func (p *Post) HasPoll() bool {
	return p.PollQuestion != "" && len(p.PollOptions) > 0
}

type PollOption struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"not null;index" json:"post_id"`
	Text   string `gorm:"size:100;not null" json:"text"`
}
