package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"darkweb/internal/db"
	"darkweb/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
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

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(LoadUser())
	r.GET("/login-as/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		s := sessions.Default(c)
		s.Set(SessionUserKey, uint(id))
		s.Save()
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
	r.GET("/clean", AuthRequired(), PermissionRequired(models.PermClean), func(c *gin.Context) {
		c.String(http.StatusOK, "cleaning")
	})
	r.GET("/flashes", func(c *gin.Context) {
		c.JSON(http.StatusOK, Flashes(c))
	})
	return r
}

func createUser(t *testing.T, username, roleName string) *models.User {
	t.Helper()
	var role models.Role
	if err := db.DB.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}
	user := &models.User{Username: username, Email: username + "@example.com", RoleID: role.ID}
	if err := db.DB.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// do performs a request carrying cookies and returns the response.
func do(r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, user *models.User) []*http.Cookie {
	t.Helper()
	w := do(r, "/login-as/"+strconv.Itoa(int(user.ID)), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("login failed: %d", w.Code)
	}
	return w.Result().Cookies()
}

func TestAuthRequiredRedirectsAnonymous(t *testing.T) {
	r := setupEngine(t)
	w := do(r, "/private?x=1", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/auth/login?next=%2Fprivate%3Fx%3D1" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

func TestAuthRequiredLoadsUser(t *testing.T) {
	r := setupEngine(t)
	u := createUser(t, "alice", "User")
	w := do(r, "/private", login(t, r, u))
	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Errorf("Expected alice, got %d %q", w.Code, w.Body.String())
	}

	var reloaded models.User
	db.DB.First(&reloaded, u.ID)
	if time.Since(reloaded.LastSeen) > time.Minute {
		t.Errorf("Expected last_seen to be refreshed, got %v", reloaded.LastSeen)
	}
}

func TestPermissionRequired(t *testing.T) {
	r := setupEngine(t)
	plain := createUser(t, "plain", "User")
	mod := createUser(t, "mod", "Moderator")

	cookies := login(t, r, plain)
	w := do(r, "/clean", cookies)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("Expected redirect home, got %d %q", w.Code, w.Header().Get("Location"))
	}
	flash := do(r, "/flashes", w.Result().Cookies())
	if flash.Body.String() != `["You do not have permission to do that."]` {
		t.Errorf("unexpected flashes %s", flash.Body.String())
	}

	w = do(r, "/clean", login(t, r, mod))
	if w.Code != http.StatusOK || w.Body.String() != "cleaning" {
		t.Errorf("Expected moderator through, got %d %q", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(4))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// burst is half the per-minute rate
	for i := 0; i < 2; i++ {
		if w := do(r, "/", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := do(r, "/", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}

func TestAccessLogSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessLog(), Recovery())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, "/", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
	if w := do(r, "/boom", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", BodyLimit(8), func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.String(http.StatusRequestEntityTooLarge, "limit %d", maxErr.Limit)
			return
		}
		c.String(http.StatusOK, string(data))
	})

	send := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		return w
	}
	if w := send("12345678"); w.Code != http.StatusOK || w.Body.String() != "12345678" {
		t.Errorf("body at the limit: %d %q", w.Code, w.Body.String())
	}
	if w := send("123456789"); w.Code != http.StatusRequestEntityTooLarge || w.Body.String() != "limit 8" {
		t.Errorf("body over the limit: %d %q", w.Code, w.Body.String())
	}
}
