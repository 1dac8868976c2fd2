package models

import (
	"time"
)

// Report 举报账本 - 每个 (post, reporter) 至多一行，同一用户不能重复举报同一帖子
type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_report_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_report_post_user" json:"user_id"` // Reporter
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Reason    string    `gorm:"size:200;not null" json:"reason"`
	Details   string    `gorm:"size:1000" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
