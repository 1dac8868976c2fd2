package services

import (
	"context"
	"errors"
	"time"
	"unilink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollService 维护投票账本。每个 (post, user) 至多一票，
// 改票是替换而非追加；票数分布每次在事务内重新统计，不做增量维护。
type PollService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPollService(db *gorm.DB) *PollService {
	return &PollService{db: db, now: time.Now}
}

type PollOptionResult struct {
	ID         uint    `json:"id"`
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type PollResult struct {
	Options    []PollOptionResult `json:"options"`
	TotalVotes int                `json:"total_votes"`
}

// VotePollOption 投票或改票。重复投同一选项为幂等空操作。
// 不同用户的并发投票互不干扰：各自命中自己的 (post, user) 键，
// 聚合结果按行重新统计，不存在共享计数器上的丢失更新。
func (s *PollService) VotePollOption(ctx context.Context, postID, userID, optionID uint) (*PollResult, error) {
	const op = "VotePollOption"
	var res *PollResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Preload("PollOptions").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return opErr(op, postID, userID, ErrNotFound, "post not found")
			}
			return txErr(op, postID, userID, err)
		}
		if !post.HasPoll() {
			return opErr(op, postID, userID, ErrValidation, "post has no poll")
		}

		valid := false
		for _, o := range post.PollOptions {
			if o.ID == optionID {
				valid = true
				break
			}
		}
		if !valid {
			return opErr(op, postID, userID, ErrValidation, "option does not belong to this poll")
		}

		if post.PollEndsAt != nil && !s.now().Before(*post.PollEndsAt) {
			return opErr(op, postID, userID, ErrInvalidOperation, "poll has ended")
		}

		// 不存在则插入，存在则替换选项（改票）
		vote := models.PollVote{PostID: postID, UserID: userID, OptionID: optionID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"option_id": optionID}),
		}).Create(&vote).Error; err != nil {
			return txErr(op, postID, userID, err)
		}

		r, err := tally(tx, &post)
		if err != nil {
			return txErr(op, postID, userID, err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Results 当前票数分布（只读）
func (s *PollService) Results(ctx context.Context, postID uint) (*PollResult, error) {
	const op = "PollResults"
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("PollOptions").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, opErr(op, postID, 0, ErrNotFound, "post not found")
		}
		return nil, txErr(op, postID, 0, err)
	}
	if !post.HasPoll() {
		return nil, opErr(op, postID, 0, ErrValidation, "post has no poll")
	}
	res, err := tally(s.db.WithContext(ctx), &post)
	if err != nil {
		return nil, txErr(op, postID, 0, err)
	}
	return res, nil
}

// CurrentVote 返回用户在该帖子上已投的选项 ID，未投票返回 0
func (s *PollService) CurrentVote(ctx context.Context, postID, userID uint) uint {
	var vote models.PollVote
	if err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&vote).Error; err != nil {
		return 0
	}
	return vote.OptionID
}

// tally 按选项分组统计票数并计算百分比，总票数为 0 时百分比为 0
func tally(tx *gorm.DB, post *models.Post) (*PollResult, error) {
	type row struct {
		OptionID uint
		Votes    int
	}
	var rows []row
	if err := tx.Model(&models.PollVote{}).
		Select("option_id, COUNT(*) AS votes").
		Where("post_id = ?", post.ID).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int, len(rows))
	total := 0
	for _, r := range rows {
		counts[r.OptionID] = r.Votes
		total += r.Votes
	}

	res := &PollResult{
		Options:    make([]PollOptionResult, 0, len(post.PollOptions)),
		TotalVotes: total,
	}
	for _, o := range post.PollOptions {
		votes := counts[o.ID]
		pct := 0.0
		if total > 0 {
			pct = float64(votes) / float64(total) * 100
		}
		res.Options = append(res.Options, PollOptionResult{
			ID:         o.ID,
			Text:       o.Text,
			Votes:      votes,
			Percentage: pct,
		})
	}
	return res, nil
}
