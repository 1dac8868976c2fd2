package services

import (
	"testing"
	"unilink/internal/models"
)

func TestRecountRealignsCounters(t *testing.T) {
	g := newTestDB(t)
	svc := NewRecountService(g)
	user := seedUser(t, g, "alice", "user")
	bob := seedUser(t, g, "bob", "user")
	post := seedPost(t, g, user.ID, "post")

	// 绕过服务直接写账本，把计数器弄歪
	for _, uid := range []uint{user.ID, bob.ID} {
		if err := g.Create(&models.Like{PostID: post.ID, UserID: uid}).Error; err != nil {
			t.Fatalf("seed like: %v", err)
		}
	}
	if err := g.Create(&models.Comment{Cid: "c0000001", PostID: post.ID, UserID: bob.ID, Content: "hi"}).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	if err := g.Model(&models.Post{}).Where("id = ?", post.ID).
		Updates(map[string]interface{}{"likes_count": 7, "comments_count": 9}).Error; err != nil {
		t.Fatalf("skew counters: %v", err)
	}

	svc.Recount(post.ID)

	p := reloadPost(t, g, post.ID)
	if p.LikesCount != 2 {
		t.Errorf("expected likes_count realigned to 2, got %d", p.LikesCount)
	}
	if p.CommentsCount != 1 {
		t.Errorf("expected comments_count realigned to 1, got %d", p.CommentsCount)
	}
}

func TestScheduleRecountDeduplicates(t *testing.T) {
	g := newTestDB(t)
	svc := NewRecountService(g)

	svc.ScheduleRecount(42)
	svc.ScheduleRecount(42)
	if len(svc.queue) != 1 {
		t.Errorf("expected duplicate schedule to be dropped, queue len=%d", len(svc.queue))
	}

	svc.processBatch([]uint{42})
	svc.ScheduleRecount(42)
	if len(svc.queue) != 2 {
		t.Errorf("expected rescheduling after processing, queue len=%d", len(svc.queue))
	}
}
