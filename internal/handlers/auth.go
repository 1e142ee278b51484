package handlers

import (
	"errors"
	"net/http"
	"strings"

	"darkweb/internal/config"
	"darkweb/internal/db"
	"darkweb/internal/middleware"
	"darkweb/internal/models"
	"darkweb/internal/services"
	"darkweb/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const captchaKey = "captcha_answer"

type AuthHandler struct {
	captchaService *services.CaptchaService
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		captchaService: services.NewCaptchaService(),
	}
}

// renderRegister shows the register form with a fresh captcha.
func (h *AuthHandler) renderRegister(c *gin.Context, code int, obj gin.H) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaKey, answer)
	session.Save()
	if obj == nil {
		obj = gin.H{}
	}
	obj["Captcha"] = question
	Render(c, code, "auth/register.html", obj)
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	h.renderRegister(c, http.StatusOK, gin.H{"Form": RegisterForm{}})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password, form.Password2 = "", ""
		h.renderRegister(c, http.StatusBadRequest, gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Username = strings.TrimSpace(form.Username)

	errs := FormErrors{}
	session := sessions.Default(c)
	expected, ok := session.Get(captchaKey).(int)
	session.Delete(captchaKey)
	if !ok || !h.captchaService.Verify(form.Captcha, expected) {
		errs.Add("captcha", "Wrong answer.")
	}
	if !validUsername(form.Username) {
		errs.Add("username", "Usernames must start with a letter and contain only letters, numbers, dots or underscores.")
	}
	if len(errs) == 0 {
		var count int64
		if err := db.DB.Model(&models.User{}).Where("email = ?", form.Email).Count(&count).Error; err != nil {
			serverError(c, err, "check email failed")
			return
		}
		if count > 0 {
			errs.Add("email", "Email already registered.")
		}
		if err := db.DB.Model(&models.User{}).Where("username = ?", form.Username).Count(&count).Error; err != nil {
			serverError(c, err, "check username failed")
			return
		}
		if count > 0 {
			errs.Add("username", "Username already in use.")
		}
	}
	if len(errs) > 0 {
		form.Password, form.Password2, form.Captcha = "", "", ""
		h.renderRegister(c, http.StatusBadRequest, gin.H{"Form": form, "Errors": errs})
		return
	}

	user, err := h.createUser(form.Username, form.Email, form.Password)
	if err != nil {
		serverError(c, err, "create user failed")
		return
	}
	utils.Logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	middleware.AddFlash(c, "You can now log in.")
	c.Redirect(http.StatusFound, "/auth/login")
}

// createUser stores a new account. The configured admin email gets the
// Administrator role, everyone else the default role.
func (h *AuthHandler) createUser(username, email, password string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var role *models.Role
	if admin := config.Get().AdminEmail; admin != "" && admin == email {
		var r models.Role
		if err := db.DB.Where("name = ?", models.RoleAdministrator).First(&r).Error; err != nil {
			return nil, err
		}
		role = &r
	} else if role, err = db.DefaultRole(db.DB); err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := db.DB.Omit("Role").Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Form": LoginForm{Next: c.Query("next")}})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}

	var user models.User
	err := db.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(form.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		serverError(c, err, "load user failed")
		return
	}
	if err != nil || !utils.CheckPasswordHash(form.Password, user.PasswordHash) {
		form.Password = ""
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Form": form, "Error": "Invalid email or password."})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		serverError(c, err, "save session failed")
		return
	}

	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.AddFlash("You have been logged out.")
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

// safeNext only accepts local absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
