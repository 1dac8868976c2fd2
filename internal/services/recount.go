package services

import (
	"log"
	"sync"
	"time"
	"unilink/internal/models"

	"gorm.io/gorm"
)

// RecountService 异步核对计数器的服务。
// 计数器只是账本行数的缓存，所有写入都走事务内的原子更新；
// 这里只是兜底：把最近被操作过的帖子的计数重新按账本行数校准一遍。
// 举报阈值判断始终在举报事务内同步完成，不依赖本服务。
type RecountService struct {
	db      *gorm.DB
	queue   chan uint // 待校准的帖子 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
}

func NewRecountService(db *gorm.DB) *RecountService {
	return &RecountService{
		db:      db,
		queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞请求路径
		pending: make(map[uint]bool),
	}
}

// Start 启动后台 worker
func (s *RecountService) Start() {
	go s.worker()
}

// ScheduleRecount 将帖子加入校准队列（异步）。
// 去重机制避免短时间内重复校准同一帖子。
func (s *RecountService) ScheduleRecount(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	// 非阻塞发送
	select {
	case s.queue <- postID:
	default:
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("recount queue full, skipping post %d", postID)
	}
}

func (s *RecountService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RecountService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		s.Recount(postID)

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// Recount 将单个帖子的点赞/评论计数校准为账本行数。
// 用子查询一条 UPDATE 完成，计数在语句执行瞬间与账本一致。
func (s *RecountService) Recount(postID uint) {
	err := s.db.Model(&models.Post{}).Where("id = ?", postID).
		Updates(map[string]interface{}{
			"likes_count":    gorm.Expr("(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)"),
			"comments_count": gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)"),
		}).Error
	if err != nil {
		log.Printf("recount for post %d failed: %v", postID, err)
	}
}
