package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"darkweb/internal/middleware"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Render helper to inject common variables like the current user and any
// pending notices.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["Flashes"] = middleware.Flashes(c)
	obj["CurrentPath"] = c.Request.URL.Path
	obj["Perm"] = permNames

	c.HTML(code, name, obj)
}

// permissions exposed to templates as .Perm.CLEAN etc.
var permNames = func() map[string]models.Permission {
	names := make(map[string]models.Permission, len(models.AllPermissions))
	for _, p := range models.AllPermissions {
		names[p.String()] = p
	}
	return names
}()

// RenderError renders the shared error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Code": code, "Error": message})
	c.Abort()
}

func notFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "The page you asked for does not exist.")
}

func serverError(c *gin.Context, err error, msg string) {
	utils.Logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.String("path", c.Request.URL.Path),
	)
	_ = c.Error(err)
	RenderError(c, http.StatusInternalServerError, "Something went wrong on our side.")
}

// fail maps a lookup error to 404 or 500 and reports whether one was sent.
func fail(c *gin.Context, err error, msg string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(c)
	} else {
		serverError(c, err, msg)
	}
	return true
}

// forbidden leaves a notice and sends the user to a safe page. Nothing is
// changed.
func forbidden(c *gin.Context, message, to string) {
	middleware.AddFlash(c, message)
	c.Redirect(http.StatusFound, to)
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// paramID parses a positive integer path parameter. Anything else is treated
// as an unknown id.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}
