package handlers

import (
	"errors"
	"net/http"
	"path"

	"darkweb/internal/services"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DownloadHandler struct {
	files *services.FileStore
}

func NewDownloadHandler(files *services.FileStore) *DownloadHandler {
	return &DownloadHandler{files: files}
}

// List renders every stored upload.
func (h *DownloadHandler) List(c *gin.Context) {
	files, err := h.files.List()
	if err != nil {
		serverError(c, err, "list uploads failed")
		return
	}
	Render(c, http.StatusOK, "filedown.html", gin.H{"Title": "Files", "Files": files})
}

// Download streams a file as an attachment. Only names from the listing
// are served.
func (h *DownloadHandler) Download(c *gin.Context) {
	name := c.PostForm("file")
	if c.Request.Method == http.MethodGet {
		name = c.Query("file")
	}

	p, err := h.files.Resolve(name)
	if errors.Is(err, services.ErrFileNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err, "resolve upload failed")
		return
	}

	utils.Logger.Info("file downloaded", zap.String("file", name), zap.Uint("user_id", currentUser(c).ID))
	c.FileAttachment(p, path.Base(name))
}
