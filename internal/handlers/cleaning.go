package handlers

import (
	"fmt"
	"net/http"

	"darkweb/internal/config"
	"darkweb/internal/db"
	"darkweb/internal/models"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CleaningHandler struct{}

func NewCleaningHandler() *CleaningHandler {
	return &CleaningHandler{}
}

// List shows every comment, disabled ones included, newest first.
func (h *CleaningHandler) List(c *gin.Context) {
	page := utils.ParsePage(c.Query("page"))

	var total int64
	if err := db.DB.Model(&models.Comment{}).Count(&total).Error; err != nil {
		serverError(c, err, "count comments failed")
		return
	}
	pagination := utils.NewPagination(page, config.Get().CommentsPerPage, total)

	var comments []models.Comment
	if !pagination.PastEnd {
		err := db.DB.Preload("Author").
			Order("timestamp DESC, id DESC").
			Offset(pagination.Offset()).
			Limit(pagination.PerPage).
			Find(&comments).Error
		if err != nil {
			serverError(c, err, "list comments failed")
			return
		}
	}

	Render(c, http.StatusOK, "cleaning.html", gin.H{
		"Title":      "Cleaning",
		"Comments":   comments,
		"Pagination": pagination,
		"Page":       page,
	})
}

func (h *CleaningHandler) Enable(c *gin.Context)  { h.setDisabled(c, false) }
func (h *CleaningHandler) Disable(c *gin.Context) { h.setDisabled(c, true) }

// setDisabled only touches the moderation flag.
func (h *CleaningHandler) setDisabled(c *gin.Context, disabled bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var comment models.Comment
	if fail(c, db.DB.First(&comment, id).Error, "load comment failed") {
		return
	}
	if err := db.DB.Model(&comment).Update("disabled", disabled).Error; err != nil {
		serverError(c, err, "update comment failed")
		return
	}
	utils.Logger.Info("comment moderated",
		zap.Uint("comment_id", comment.ID),
		zap.Bool("disabled", disabled),
		zap.Uint("moderator_id", currentUser(c).ID),
	)

	page := utils.ParsePage(c.Query("page"))
	c.Redirect(http.StatusFound, fmt.Sprintf("/cleaning?page=%d", page))
}
