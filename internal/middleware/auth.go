package middleware

import (
	"net/http"
	"net/url"
	"time"

	"darkweb/internal/db"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CheckUserKey = "user"

// SessionUserKey is the session entry holding the logged in user's id.
const SessionUserKey = "user_id"

const lastSeenInterval = time.Minute

// LoadUser retrieves the session user, with its role, and stores it on the
// context. A stale session id is dropped.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			if err := db.DB.Preload("Role").First(&user, userID).Error; err == nil {
				c.Set(CheckUserKey, &user)
				touchLastSeen(&user)
			} else {
				session.Delete(SessionUserKey)
				session.Save()
			}
		}
		c.Next()
	}
}

func touchLastSeen(user *models.User) {
	now := time.Now()
	if now.Sub(user.LastSeen) < lastSeenInterval {
		return
	}
	if err := db.DB.Model(user).UpdateColumn("last_seen", now).Error; err != nil {
		utils.Logger.Warn("update last_seen failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.LastSeen = now
}

// CurrentUser returns the user set by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired redirects anonymous requests to the login page, remembering
// where they were headed.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PermissionRequired lets the request through only when the current user's
// role grants perm. Otherwise it leaves a notice and sends the user home.
// It expects AuthRequired to have run.
func PermissionRequired(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !user.Can(perm) {
			AddFlash(c, "You do not have permission to do that.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AddFlash queues a one-shot notice for the next rendered page.
func AddFlash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		utils.Logger.Warn("save flash failed", zap.Error(err))
	}
}

// Flashes pops every queued notice.
func Flashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		utils.Logger.Warn("save session failed", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
