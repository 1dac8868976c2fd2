package services

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"unilink/internal/db"
	"unilink/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pidSeq uint64

// newTestDB 打开内存库并套用与生产一致的迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(g); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return g
}

func seedUser(t *testing.T, g *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := models.User{
		Username: name,
		Email:    name + "@campus.test",
		Role:     role,
	}
	if err := g.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return &u
}

func seedPost(t *testing.T, g *gorm.DB, userID uint, title string) *models.Post {
	t.Helper()
	p := models.Post{
		Pid:    fmt.Sprintf("p%07d", atomic.AddUint64(&pidSeq, 1)),
		UserID: userID,
		Title:  title,
	}
	if err := g.Create(&p).Error; err != nil {
		t.Fatalf("seed post %s: %v", title, err)
	}
	return &p
}

func seedPollPost(t *testing.T, g *gorm.DB, userID uint, question string, options ...string) *models.Post {
	t.Helper()
	p := models.Post{
		Pid:          fmt.Sprintf("p%07d", atomic.AddUint64(&pidSeq, 1)),
		UserID:       userID,
		Title:        question,
		PollQuestion: question,
	}
	for _, text := range options {
		p.PollOptions = append(p.PollOptions, models.PollOption{Text: text})
	}
	if err := g.Create(&p).Error; err != nil {
		t.Fatalf("seed poll post %s: %v", question, err)
	}
	return &p
}

func reloadPost(t *testing.T, g *gorm.DB, id uint) *models.Post {
	t.Helper()
	var p models.Post
	if err := g.First(&p, id).Error; err != nil {
		t.Fatalf("reload post %d: %v", id, err)
	}
	return &p
}

// installPostUpdateFailure 注册一个按需让 posts 表更新失败的回调，
// 用于验证事务整体回滚
func installPostUpdateFailure(t *testing.T, g *gorm.DB) *bool {
	t.Helper()
	fail := false
	err := g.Callback().Update().Before("gorm:update").Register("test:fail_post_updates", func(d *gorm.DB) {
		if fail && d.Statement.Table == "posts" {
			d.AddError(errors.New("forced update failure"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	return &fail
}
