package router

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"darkweb/internal/config"
	"darkweb/internal/db"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testPassword = "secret123"

func setupRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GinMode:            "test",
		SessionSecret:      "test-secret",
		PostsPerPage:       3,
		CommentsPerPage:    3,
		UploadsDir:         t.TempDir(),
		MaxUploadMB:        1,
		RateLimitPerMinute: 100000,
		LogLevel:           "silent",
	}
	config.Set(cfg)

	conn, err := db.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.DB = conn
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return r, cfg
}

func createUser(t *testing.T, username, roleName string) *models.User {
	t.Helper()
	var role models.Role
	if err := db.DB.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	hash, err := utils.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := db.DB.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, handler: h, cookies: map[string]*http.Cookie{}}
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

func (c *client) postMultipart(path string, fields map[string]string, fileField, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			c.t.Fatal(err)
		}
		part.Write(content)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req)
}

func (c *client) login(user *models.User) {
	c.t.Helper()
	w := c.post("/auth/login", url.Values{"email": {user.Email}, "password": {testPassword}})
	if w.Code != http.StatusFound {
		c.t.Fatalf("login %s: expected 302, got %d", user.Username, w.Code)
	}
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302 to %s, got %d: %s", location, w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Expected redirect to %s, got %s", location, got)
	}
}

func mustContain(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("Expected body to contain %q", want)
	}
}

func createPost(t *testing.T, author *models.User, subject string, ts time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Subject: subject, Body: "body of " + subject, AuthorID: author.ID, Timestamp: ts}
	if err := db.DB.Omit("Author").Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func createComment(t *testing.T, author *models.User, parent models.CommentParent, body string) *models.Comment {
	t.Helper()
	comment := &models.Comment{Body: body, AuthorID: author.ID}
	comment.SetParent(parent)
	if err := db.DB.Omit("Author").Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

func likeCount(t *testing.T, table, column string, id uint) int64 {
	t.Helper()
	var n int64
	if err := db.DB.Table(table).Where(column+" = ?", id).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func urlf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

var captchaQuestion = regexp.MustCompile(`What is (\d+) ([+-]) (\d+)\?`)

// captchaAnswer solves the arithmetic question shown on a register page.
func captchaAnswer(t *testing.T, body string) string {
	t.Helper()
	m := captchaQuestion.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no captcha in page")
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	if m[2] == "-" {
		return strconv.Itoa(a - b)
	}
	return strconv.Itoa(a + b)
}

// observeLogs routes utils.Logger into memory for the rest of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })
	return logs
}
