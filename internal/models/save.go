package models

import (
	"time"
)

// Save 收藏账本 - 用户收藏帖子，无冗余计数字段，收藏状态由行的存在性决定
type Save struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_save_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_save_user_post" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	CreatedAt time.Time `json:"created_at"`
}
