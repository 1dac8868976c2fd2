package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"unilink/internal/config"
	"unilink/internal/db"
	"unilink/internal/middleware"
	"unilink/internal/models"
	"unilink/internal/router"
	"unilink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pidSeq uint64

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

// setupRouter 用真实路由表搭一个测试服务，举报接口不限流。
// 会话由外部账号模块负责，测试里用一个直接注入当前用户的中间件代替。
func setupRouter(t *testing.T, currentUser func() *models.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db.DB = newTestDB(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := currentUser(); u != nil {
			c.Set(middleware.CheckUserKey, u)
		}
		c.Next()
	})
	router.RegisterRoutes(r, config.Load(), nil, services.NewRecountService(db.DB))
	return r
}

func seedUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@campus.test", Role: role}
	if err := db.DB.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func seedPost(t *testing.T, userID uint, title string) *models.Post {
	t.Helper()
	p := models.Post{
		Pid:    fmt.Sprintf("h%07d", atomic.AddUint64(&pidSeq, 1)),
		UserID: userID,
		Title:  title,
	}
	if err := db.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return &p
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestToggleLikeEndpoint(t *testing.T) {
	var user *models.User
	r := setupRouter(t, func() *models.User { return user })
	user = seedUser(t, "alice", "user")
	post := seedPost(t, user.ID, "hello")

	w := doJSON(r, "POST", "/like/"+post.Pid, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res services.LikeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Liked || res.LikesCount != 1 {
		t.Errorf("expected liked=true count=1, got %+v", res)
	}

	// 再点一次回到原状
	w = doJSON(r, "POST", "/like/"+post.Pid, nil)
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Liked || res.LikesCount != 0 {
		t.Errorf("expected liked=false count=0, got %+v", res)
	}
}

func TestToggleLikeRequiresLogin(t *testing.T) {
	r := setupRouter(t, func() *models.User { return nil })
	author := seedUser(t, "author", "user")
	post := seedPost(t, author.ID, "hello")

	w := doJSON(r, "POST", "/like/"+post.Pid, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestReportEndpointDuplicate(t *testing.T) {
	var user *models.User
	r := setupRouter(t, func() *models.User { return user })
	author := seedUser(t, "author", "user")
	user = seedUser(t, "reporter", "user")
	post := seedPost(t, author.ID, "hello")

	body := map[string]string{"reason": "spam", "details": "<b>link</b> farm"}
	w := doJSON(r, "POST", "/p/"+post.Pid+"/report", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// HTML 应被剥掉
	var report models.Report
	if err := db.DB.Where("post_id = ?", post.ID).First(&report).Error; err != nil {
		t.Fatalf("report row missing: %v", err)
	}
	if report.Details != "link farm" {
		t.Errorf("expected sanitized details, got %q", report.Details)
	}

	w = doJSON(r, "POST", "/p/"+post.Pid+"/report", body)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate report, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminReportRoutes(t *testing.T) {
	var user *models.User
	r := setupRouter(t, func() *models.User { return user })
	author := seedUser(t, "author", "user")
	regular := seedUser(t, "regular", "user")
	admin := seedUser(t, "admin", "admin")
	post := seedPost(t, author.ID, "hello")

	user = regular
	if w := doJSON(r, "GET", "/admin/reports", nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", w.Code)
	}

	user = admin
	if w := doJSON(r, "GET", "/admin/reports", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", w.Code)
	}
	if w := doJSON(r, "POST", "/admin/reports/"+post.Pid+"/restore", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for restore, got %d", w.Code)
	}
	if w := doJSON(r, "DELETE", "/admin/reports/"+post.Pid, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for permanent delete, got %d", w.Code)
	}
	// 终态不可重复下架
	if w := doJSON(r, "DELETE", "/admin/reports/"+post.Pid, nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for double delete, got %d", w.Code)
	}
}

func TestHiddenPostDetail(t *testing.T) {
	var user *models.User
	r := setupRouter(t, func() *models.User { return user })
	author := seedUser(t, "author", "user")
	admin := seedUser(t, "admin", "admin")
	post := seedPost(t, author.ID, "hidden one")

	if err := db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("is_hidden_by_reports", true).Error; err != nil {
		t.Fatalf("hide post: %v", err)
	}

	user = nil
	if w := doJSON(r, "GET", "/p/"+post.Pid, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for anonymous on hidden post, got %d", w.Code)
	}

	user = author
	if w := doJSON(r, "GET", "/p/"+post.Pid, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for author on hidden post, got %d", w.Code)
	}

	user = admin
	if w := doJSON(r, "GET", "/p/"+post.Pid, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 for admin on hidden post, got %d", w.Code)
	}
}

func TestCreatePollAndVote(t *testing.T) {
	var user *models.User
	r := setupRouter(t, func() *models.User { return user })
	user = seedUser(t, "alice", "user")

	w := doJSON(r, "POST", "/submit", map[string]interface{}{
		"title":         "lunch poll",
		"poll_question": "where to eat?",
		"poll_options":  []string{"canteen", "noodle shop"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Post
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created post: %v", err)
	}
	if len(created.PollOptions) != 2 {
		t.Fatalf("expected 2 poll options, got %d", len(created.PollOptions))
	}

	w = doJSON(r, "POST", "/p/"+created.Pid+"/poll/vote",
		map[string]uint{"option_id": created.PollOptions[0].ID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res services.PollResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.TotalVotes != 1 {
		t.Errorf("expected totalVotes=1, got %+v", res)
	}

	// 投票缺少选项时应 400
	w = doJSON(r, "POST", "/p/"+created.Pid+"/poll/vote", map[string]uint{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing option_id, got %d", w.Code)
	}
}
