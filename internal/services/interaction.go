package services

import (
	"context"
	"errors"
	"unilink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionService 维护点赞/收藏账本。
// 点赞/收藏状态由账本行的存在性决定，没有单独的布尔字段；
// 每次调用是一个完整事务，计数器和账本要么一起变，要么都不变。
type InteractionService struct {
	db *gorm.DB
}

func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{db: db}
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type SaveResult struct {
	Saved bool `json:"saved"`
}

// likesFloorDecr 计数器减一并钳到 0，写成可移植的 SQL 表达式
const likesFloorDecr = "CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END"

// ToggleLike 切换点赞状态。已点赞则取消，未点赞则点赞。
// 同一用户的并发双击由唯一索引裁决：插入被冲突吞掉的一方直接沿用胜者的结果。
func (s *InteractionService) ToggleLike(ctx context.Context, postID, userID uint) (*LikeResult, error) {
	const op = "ToggleLike"
	var res LikeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, userID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, userID, err)
		}

		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			// 已点赞，取消
			del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
			if del.Error != nil {
				return txErr(op, postID, userID, del.Error)
			}
			if del.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("likes_count", gorm.Expr(likesFloorDecr)).Error; err != nil {
					return txErr(op, postID, userID, err)
				}
			}
			res.Liked = false

		case errors.Is(err, gorm.ErrRecordNotFound):
			// 未点赞，插入账本行。并发请求先行插入时 RowsAffected 为 0，
			// 此时不再加计数，直接返回胜者的状态。
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Like{PostID: postID, UserID: userID})
			if ins.Error != nil {
				return txErr(op, postID, userID, ins.Error)
			}
			if ins.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
					return txErr(op, postID, userID, err)
				}
			}
			res.Liked = true

		default:
			return txErr(op, postID, userID, err)
		}

		// 事务内读回最新计数
		var fresh models.Post
		if err := tx.Select("likes_count").First(&fresh, postID).Error; err != nil {
			return txErr(op, postID, userID, err)
		}
		res.LikesCount = fresh.LikesCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ToggleSave 切换收藏状态，结构与 ToggleLike 一致但没有冗余计数字段
func (s *InteractionService) ToggleSave(ctx context.Context, postID, userID uint) (*SaveResult, error) {
	const op = "ToggleSave"
	var res SaveResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, userID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, userID, err)
		}

		var existing models.Save
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			if del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Save{}); del.Error != nil {
				return txErr(op, postID, userID, del.Error)
			}
			res.Saved = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Save{PostID: postID, UserID: userID})
			if ins.Error != nil {
				return txErr(op, postID, userID, ins.Error)
			}
			res.Saved = true
		default:
			return txErr(op, postID, userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// IsLiked 检查用户是否已点赞某帖子（用于详情页个人状态）
func (s *InteractionService) IsLiked(ctx context.Context, postID, userID uint) bool {
	var like models.Like
	return s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&like).Error == nil
}

// IsSaved 检查用户是否已收藏某帖子
func (s *InteractionService) IsSaved(ctx context.Context, postID, userID uint) bool {
	var save models.Save
	return s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&save).Error == nil
}
