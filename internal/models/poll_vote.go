package models

import (
	"time"
)

// PollVote 投票账本 - 每个 (post, user) 至多一行，改票更新 OptionID 而非新增行。
// 各选项票数一律按行分组统计，不做冗余存储。
type PollVote struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    uint       `gorm:"not null;index;uniqueIndex:idx_vote_post_user" json:"post_id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_vote_post_user" json:"user_id"`
	OptionID  uint       `gorm:"not null;index" json:"option_id"`
	Option    PollOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"option"`
	CreatedAt time.Time  `json:"created_at"`
}
