package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unilink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModerationService 举报账本与处置状态机。
// 状态流转: visible → hidden(自动) → restored(可见,举报清零) | moderated(终态)。
// 自动隐藏阈值由配置注入，不在代码里写死。
type ModerationService struct {
	db        *gorm.DB
	threshold int
	now       func() time.Time
}

func NewModerationService(db *gorm.DB, threshold int) *ModerationService {
	if threshold <= 0 {
		threshold = 3
	}
	return &ModerationService{db: db, threshold: threshold, now: time.Now}
}

type ReportResult struct {
	Report             *models.Report `json:"report"`
	CurrentReportCount int            `json:"current_report_count"`
	WasAutoHidden      bool           `json:"was_auto_hidden"`
}

type ReportedPost struct {
	PostID      uint            `json:"post_id"`
	Pid         string          `json:"pid"`
	Title       string          `json:"title"`
	ReportCount int             `json:"report_count"`
	IsHidden    bool            `json:"is_hidden"`
	HiddenAt    *time.Time      `json:"hidden_at"`
	IsModerated bool            `json:"is_moderated"`
	Reports     []models.Report `json:"reports"`
}

// ReportPost 提交举报。同一用户对同一帖子只能举报一次。
// 计数用原子自增而非读一改一写，两个并发举报不会都读到旧值导致漏过阈值；
// 是否触发自动隐藏由带条件的 UPDATE 的 RowsAffected 裁决，恰好一个事务胜出。
func (s *ModerationService) ReportPost(ctx context.Context, postID, reporterID uint, reason, details string) (*ReportResult, error) {
	const op = "ReportPost"
	if strings.TrimSpace(reason) == "" {
		return nil, opErr(op, postID, reporterID, ErrValidation, "reason is required")
	}

	var res ReportResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, reporterID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, reporterID, err)
		}
		if post.IsModerated {
			return opErr(op, postID, reporterID, ErrInvalidOperation, "post has been removed by moderation")
		}

		report := models.Report{
			PostID:  postID,
			UserID:  reporterID,
			Reason:  reason,
			Details: details,
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&report)
		if ins.Error != nil {
			return txErr(op, postID, reporterID, ins.Error)
		}
		if ins.RowsAffected == 0 {
			return opErr(op, postID, reporterID, ErrDuplicate, "post already reported by this user")
		}

		// 原子自增举报计数
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("report_count", gorm.Expr("report_count + ?", 1)).Error; err != nil {
			return txErr(op, postID, reporterID, err)
		}

		var fresh models.Post
		if err := tx.Select("report_count", "is_hidden_by_reports").First(&fresh, postID).Error; err != nil {
			return txErr(op, postID, reporterID, err)
		}
		res.CurrentReportCount = fresh.ReportCount

		if fresh.ReportCount >= s.threshold && !fresh.IsHiddenByReports {
			hiddenAt := s.now()
			upd := tx.Model(&models.Post{}).
				Where("id = ? AND is_hidden_by_reports = ?", postID, false).
				Updates(map[string]interface{}{
					"is_hidden_by_reports": true,
					"hidden_at":            hiddenAt,
				})
			if upd.Error != nil {
				return txErr(op, postID, reporterID, upd.Error)
			}
			// RowsAffected 为 0 说明并发事务已先行隐藏
			res.WasAutoHidden = upd.RowsAffected > 0
		}

		res.Report = &report
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 异步通知管理员，不阻塞举报事务
	if res.WasAutoHidden {
		go s.NotifyAutoHide(postID, reporterID, res.CurrentReportCount)
	}
	return &res, nil
}

// GetReportedPosts 管理后台的待处理举报列表，附各帖的举报明细
func (s *ModerationService) GetReportedPosts(ctx context.Context) ([]ReportedPost, error) {
	const op = "GetReportedPosts"

	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Where("report_count > 0 OR is_hidden_by_reports = ?", true).
		Order("report_count DESC, id ASC").
		Find(&posts).Error; err != nil {
		return nil, txErr(op, 0, 0, err)
	}
	if len(posts) == 0 {
		return []ReportedPost{}, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	var reports []models.Report
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id IN ?", ids).
		Order("created_at ASC").
		Find(&reports).Error; err != nil {
		return nil, txErr(op, 0, 0, err)
	}
	byPost := make(map[uint][]models.Report, len(posts))
	for _, r := range reports {
		byPost[r.PostID] = append(byPost[r.PostID], r)
	}

	out := make([]ReportedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, ReportedPost{
			PostID:      p.ID,
			Pid:         p.Pid,
			Title:       p.Title,
			ReportCount: p.ReportCount,
			IsHidden:    p.IsHiddenByReports,
			HiddenAt:    p.HiddenAt,
			IsModerated: p.IsModerated,
			Reports:     byPost[p.ID],
		})
	}
	return out, nil
}

// RestoreReportedPost 管理员恢复被隐藏的帖子：取消隐藏、举报计数清零、
// 删除全部举报行。幂等，帖子存在即成功。
func (s *ModerationService) RestoreReportedPost(ctx context.Context, postID, adminID uint) (bool, error) {
	const op = "RestoreReportedPost"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, adminID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, adminID, err)
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Updates(map[string]interface{}{
				"is_hidden_by_reports": false,
				"report_count":         0,
				"hidden_at":            nil,
			}).Error; err != nil {
			return txErr(op, postID, adminID, err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Report{}).Error; err != nil {
			return txErr(op, postID, adminID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Printf("post %d restored by admin %d, reports cleared", postID, adminID)
	return true, nil
}

// PermanentlyDeleteReportedPost 管理员永久下架。终态，帖子本身不物理删除，
// 举报行保留作为处置依据；重复下架报错而非静默成功。
func (s *ModerationService) PermanentlyDeleteReportedPost(ctx context.Context, postID, adminID uint) (bool, error) {
	const op = "PermanentlyDeleteReportedPost"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, adminID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, adminID, err)
		}
		if post.IsModerated {
			return opErr(op, postID, adminID, ErrInvalidOperation, "post already moderated")
		}

		moderatedAt := s.now()
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Updates(map[string]interface{}{
				"is_moderated": true,
				"moderated_at": moderatedAt,
				"moderator_id": adminID,
			}).Error; err != nil {
			return txErr(op, postID, adminID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Printf("post %d permanently removed by admin %d", postID, adminID)
	return true, nil
}

// NotifyAutoHide 给所有管理员发自动隐藏通知
func (s *ModerationService) NotifyAutoHide(postID, actorID uint, count int) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		return
	}
	var admins []models.User
	if err := s.db.Where("role = ?", "admin").Find(&admins).Error; err != nil {
		return
	}
	for _, admin := range admins {
		n := models.Notification{
			UserID:  admin.ID,
			ActorID: &actorID,
			Type:    models.NotificationTypeAutoHide,
			Reason: fmt.Sprintf("帖子《%s》(/p/%s) 累计 %d 次举报，已被自动隐藏，请尽快处理",
				post.Title, post.Pid, count),
		}
		if err := s.db.Create(&n).Error; err != nil {
			log.Printf("failed to notify admin %d about post %d: %v", admin.ID, postID, err)
		}
	}
}
