package services

import (
	"context"
	"errors"
	"testing"
	"unilink/internal/models"
)

func TestToggleLikeLifecycle(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	user := seedUser(t, g, "alice", "user")
	post := seedPost(t, g, user.ID, "hello")

	// 第一次点赞
	res, err := svc.ToggleLike(context.Background(), post.ID, user.ID)
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if !res.Liked || res.LikesCount != 1 {
		t.Errorf("expected liked=true count=1, got liked=%v count=%d", res.Liked, res.LikesCount)
	}
	var rows int64
	g.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 like row, got %d", rows)
	}

	// 再点一次应恢复原状
	res, err = svc.ToggleLike(context.Background(), post.ID, user.ID)
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if res.Liked || res.LikesCount != 0 {
		t.Errorf("expected liked=false count=0, got liked=%v count=%d", res.Liked, res.LikesCount)
	}
	g.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("expected 0 like rows, got %d", rows)
	}
	if p := reloadPost(t, g, post.ID); p.LikesCount != 0 {
		t.Errorf("expected likes_count=0 after toggle off, got %d", p.LikesCount)
	}
}

func TestToggleLikeTwoUsers(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	alice := seedUser(t, g, "alice", "user")
	bob := seedUser(t, g, "bob", "user")
	post := seedPost(t, g, alice.ID, "hello")

	if res, err := svc.ToggleLike(context.Background(), post.ID, alice.ID); err != nil || !res.Liked || res.LikesCount != 1 {
		t.Fatalf("alice toggle: res=%+v err=%v", res, err)
	}
	if res, err := svc.ToggleLike(context.Background(), post.ID, bob.ID); err != nil || !res.Liked || res.LikesCount != 2 {
		t.Fatalf("bob toggle: res=%+v err=%v", res, err)
	}

	var rows int64
	g.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&rows)
	if rows != 2 {
		t.Errorf("expected 2 like rows, got %d", rows)
	}

	// alice 取消后计数应为 1
	res, err := svc.ToggleLike(context.Background(), post.ID, alice.ID)
	if err != nil {
		t.Fatalf("alice second toggle: %v", err)
	}
	if res.Liked || res.LikesCount != 1 {
		t.Errorf("expected liked=false count=1, got liked=%v count=%d", res.Liked, res.LikesCount)
	}
}

func TestToggleLikePostNotFound(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	user := seedUser(t, g, "alice", "user")

	_, err := svc.ToggleLike(context.Background(), 9999, user.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleLikeRollback(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	user := seedUser(t, g, "alice", "user")
	post := seedPost(t, g, user.ID, "hello")

	fail := installPostUpdateFailure(t, g)
	*fail = true
	_, err := svc.ToggleLike(context.Background(), post.ID, user.ID)
	*fail = false
	if !errors.Is(err, ErrTransaction) {
		t.Fatalf("expected ErrTransaction, got %v", err)
	}

	// 账本行和计数器都不应有残留
	var rows int64
	g.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("expected rollback to remove like row, got %d rows", rows)
	}
	if p := reloadPost(t, g, post.ID); p.LikesCount != 0 {
		t.Errorf("expected likes_count=0 after rollback, got %d", p.LikesCount)
	}
}

func TestToggleSave(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	user := seedUser(t, g, "alice", "user")
	post := seedPost(t, g, user.ID, "hello")

	res, err := svc.ToggleSave(context.Background(), post.ID, user.ID)
	if err != nil || !res.Saved {
		t.Fatalf("expected saved=true, res=%+v err=%v", res, err)
	}
	if !svc.IsSaved(context.Background(), post.ID, user.ID) {
		t.Error("IsSaved should report true after toggle on")
	}

	res, err = svc.ToggleSave(context.Background(), post.ID, user.ID)
	if err != nil || res.Saved {
		t.Fatalf("expected saved=false, res=%+v err=%v", res, err)
	}
	var rows int64
	g.Model(&models.Save{}).Where("post_id = ?", post.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("expected 0 save rows, got %d", rows)
	}
}

func TestToggleSavePostNotFound(t *testing.T) {
	g := newTestDB(t)
	svc := NewInteractionService(g)
	user := seedUser(t, g, "alice", "user")

	_, err := svc.ToggleSave(context.Background(), 424242, user.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
