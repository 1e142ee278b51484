package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"darkweb/internal/db"
	"darkweb/internal/middleware"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

func profileURL(username string) string {
	return "/user/" + url.PathEscape(username)
}

// Profile shows a user and their posts, newest first.
func (h *UserHandler) Profile(c *gin.Context) {
	var user models.User
	if fail(c, db.DB.Preload("Role").Where("username = ?", c.Param("username")).First(&user).Error, "load user failed") {
		return
	}

	page := utils.ParsePage(c.Query("page"))
	posts, pagination, err := listPosts(page, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("author_id = ?", user.ID)
	})
	if err != nil {
		serverError(c, err, "list user posts failed")
		return
	}

	Render(c, http.StatusOK, "user.html", gin.H{
		"Title":      user.Username,
		"User":       &user,
		"Posts":      posts,
		"Pagination": pagination,
	})
}

func (h *UserHandler) ShowEditProfile(c *gin.Context) {
	user := currentUser(c)
	Render(c, http.StatusOK, "edit_profile.html", gin.H{
		"Title": "Edit profile",
		"Form":  ProfileForm{Name: user.Name, Location: user.Location, AboutMe: user.AboutMe},
	})
}

// EditProfile updates the current user's own descriptive fields.
func (h *UserHandler) EditProfile(c *gin.Context) {
	user := currentUser(c)

	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		Render(c, http.StatusBadRequest, "edit_profile.html", gin.H{"Title": "Edit profile", "Form": form, "Errors": formErrors(err)})
		return
	}

	err := db.DB.Model(user).Updates(map[string]interface{}{
		"name":     form.Name,
		"location": form.Location,
		"about_me": form.AboutMe,
	}).Error
	if err != nil {
		serverError(c, err, "update profile failed")
		return
	}

	middleware.AddFlash(c, "Your profile has been updated.")
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

func loadRoles() ([]models.Role, error) {
	var roles []models.Role
	err := db.DB.Order("name ASC").Find(&roles).Error
	return roles, err
}

func (h *UserHandler) renderAdminForm(c *gin.Context, code int, target *models.User, form AdminProfileForm, errs FormErrors) {
	roles, err := loadRoles()
	if err != nil {
		serverError(c, err, "load roles failed")
		return
	}
	Render(c, code, "edit_profile_admin.html", gin.H{
		"Title":  "Edit profile",
		"User":   target,
		"Roles":  roles,
		"Form":   form,
		"Errors": errs,
	})
}

func (h *UserHandler) loadTarget(c *gin.Context) (*models.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	if fail(c, db.DB.Preload("Role").First(&user, id).Error, "load user failed") {
		return nil, false
	}
	return &user, true
}

func (h *UserHandler) ShowEditProfileAdmin(c *gin.Context) {
	target, ok := h.loadTarget(c)
	if !ok {
		return
	}
	h.renderAdminForm(c, http.StatusOK, target, AdminProfileForm{
		Email:    target.Email,
		Username: target.Username,
		RoleID:   target.RoleID,
		Name:     target.Name,
		Location: target.Location,
		AboutMe:  target.AboutMe,
	}, nil)
}

// EditProfileAdmin lets an administrator rewrite any account. Email and
// username stay unique and the role must exist.
func (h *UserHandler) EditProfileAdmin(c *gin.Context) {
	target, ok := h.loadTarget(c)
	if !ok {
		return
	}

	var form AdminProfileForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAdminForm(c, http.StatusBadRequest, target, form, formErrors(err))
		return
	}
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Username = strings.TrimSpace(form.Username)

	errs := FormErrors{}
	if !validUsername(form.Username) {
		errs.Add("username", "Usernames must start with a letter and contain only letters, numbers, dots or underscores.")
	}
	var count int64
	if err := db.DB.Model(&models.User{}).Where("email = ? AND id <> ?", form.Email, target.ID).Count(&count).Error; err != nil {
		serverError(c, err, "check email failed")
		return
	}
	if count > 0 {
		errs.Add("email", "Email already registered.")
	}
	if err := db.DB.Model(&models.User{}).Where("username = ? AND id <> ?", form.Username, target.ID).Count(&count).Error; err != nil {
		serverError(c, err, "check username failed")
		return
	}
	if count > 0 {
		errs.Add("username", "Username already in use.")
	}
	if err := db.DB.Model(&models.Role{}).Where("id = ?", form.RoleID).Count(&count).Error; err != nil {
		serverError(c, err, "check role failed")
		return
	}
	if count == 0 {
		errs.Add("role", "Unknown role.")
	}
	if len(errs) > 0 {
		h.renderAdminForm(c, http.StatusBadRequest, target, form, errs)
		return
	}

	err := db.DB.Model(&models.User{}).Where("id = ?", target.ID).Updates(map[string]interface{}{
		"email":    form.Email,
		"username": form.Username,
		"role_id":  form.RoleID,
		"name":     form.Name,
		"location": form.Location,
		"about_me": form.AboutMe,
	}).Error
	if err != nil {
		serverError(c, err, fmt.Sprintf("update user %d failed", target.ID))
		return
	}

	middleware.AddFlash(c, "The profile has been updated.")
	c.Redirect(http.StatusFound, profileURL(form.Username))
}
