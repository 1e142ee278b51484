package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"darkweb/internal/config"
	"darkweb/internal/db"
	"darkweb/internal/models"
	"darkweb/internal/services"
	"darkweb/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostHandler struct {
	files *services.FileStore
}

func NewPostHandler(files *services.FileStore) *PostHandler {
	return &PostHandler{files: files}
}

func postURL(postID uint) string {
	return fmt.Sprintf("/post_reply/%d", postID)
}

// fillPostCounts sets LikeCount and ReplyCount with two grouped queries.
func fillPostCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var likes, replies []CountResult
	db.DB.Table("post_likes").
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likes)
	db.DB.Model(&models.Reply{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&replies)

	likeMap := make(map[uint]int, len(likes))
	for _, r := range likes {
		likeMap[r.PostID] = r.Count
	}
	replyMap := make(map[uint]int, len(replies))
	for _, r := range replies {
		replyMap[r.PostID] = r.Count
	}
	for i := range posts {
		posts[i].LikeCount = likeMap[posts[i].ID]
		posts[i].ReplyCount = replyMap[posts[i].ID]
	}
}

func fillReplyCounts(replies []models.Reply) {
	if len(replies) == 0 {
		return
	}
	ids := make([]uint, len(replies))
	for i, r := range replies {
		ids[i] = r.ID
	}

	type CountResult struct {
		ReplyID uint
		Count   int
	}
	var likes []CountResult
	db.DB.Table("reply_likes").
		Select("reply_id, COUNT(*) as count").
		Where("reply_id IN ?", ids).
		Group("reply_id").
		Scan(&likes)

	likeMap := make(map[uint]int, len(likes))
	for _, r := range likes {
		likeMap[r.ReplyID] = r.Count
	}
	for i := range replies {
		replies[i].LikeCount = likeMap[replies[i].ID]
	}
}

// listPosts loads one page of posts, newest first. scope narrows the query.
func listPosts(page int, scope func(*gorm.DB) *gorm.DB) ([]models.Post, utils.Pagination, error) {
	perPage := config.Get().PostsPerPage

	var total int64
	if err := scope(db.DB.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, err
	}
	pagination := utils.NewPagination(page, perPage, total)
	if pagination.PastEnd {
		return nil, pagination, nil
	}

	var posts []models.Post
	err := scope(db.DB.Model(&models.Post{})).
		Preload("Author").
		Order("timestamp DESC, id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&posts).Error
	if err != nil {
		return nil, pagination, err
	}
	fillPostCounts(posts)
	return posts, pagination, nil
}

func allPosts(tx *gorm.DB) *gorm.DB { return tx }

// Index lists every post, newest first.
func (h *PostHandler) Index(c *gin.Context) {
	page := utils.ParsePage(c.Query("page"))
	posts, pagination, err := listPosts(page, allPosts)
	if err != nil {
		serverError(c, err, "list posts failed")
		return
	}

	Render(c, http.StatusOK, "index.html", gin.H{
		"Title":      "Posts",
		"Posts":      posts,
		"Pagination": pagination,
	})
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "post_write.html", gin.H{"Title": "New post", "Form": PostForm{}})
}

// Create stores a post and, when present, its attachment.
func (h *PostHandler) Create(c *gin.Context) {
	user := currentUser(c)

	var form PostForm
	if err := c.ShouldBind(&form); err != nil {
		if bodyTooLarge(err) {
			h.rejectUpload(c, form)
			return
		}
		Render(c, http.StatusBadRequest, "post_write.html", gin.H{"Title": "New post", "Form": form, "Errors": formErrors(err)})
		return
	}

	post := models.Post{
		Subject:  form.Subject,
		Body:     form.Body,
		AuthorID: user.ID,
	}

	if header, err := c.FormFile("upload"); err == nil {
		name, err := h.files.Save(user.Email, header)
		switch {
		case errors.Is(err, services.ErrEmptyFilename):
			Render(c, http.StatusBadRequest, "post_write.html", gin.H{"Title": "New post", "Form": form,
				"Errors": FormErrors{"upload": "That file name cannot be used."}})
			return
		case errors.Is(err, services.ErrFileTooLarge):
			h.rejectUpload(c, form)
			return
		case err != nil:
			serverError(c, err, "save upload failed")
			return
		}
		post.Filepath = name
	} else if bodyTooLarge(err) {
		h.rejectUpload(c, form)
		return
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		serverError(c, err, "read upload failed")
		return
	}

	if err := db.DB.Omit("Author").Create(&post).Error; err != nil {
		if post.Filepath != "" {
			if rmErr := h.files.Remove(user.Email, post.Filepath); rmErr != nil {
				utils.Logger.Warn("remove orphaned upload failed", zap.String("file", post.Filepath), zap.Error(rmErr))
			}
		}
		serverError(c, err, "create post failed")
		return
	}
	utils.Logger.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("author_id", user.ID))

	c.Redirect(http.StatusFound, "/")
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *PostHandler) rejectUpload(c *gin.Context, form PostForm) {
	Render(c, http.StatusRequestEntityTooLarge, "post_write.html", gin.H{"Title": "New post", "Form": form,
		"Errors": FormErrors{"upload": fmt.Sprintf("Files may be at most %d MB.", h.files.MaxBytes()>>20)}})
}

// loadPostView loads a post with everything its page shows.
func loadPostView(postID uint) (*models.Post, error) {
	var post models.Post
	err := db.DB.
		Preload("Author").
		Preload("Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("timestamp ASC, id ASC") }).
		Preload("Replies.Author").
		Preload("Replies.Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("timestamp ASC, id ASC") }).
		Preload("Replies.Comments.Author").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("timestamp ASC, id ASC") }).
		Preload("Comments.Author").
		First(&post, postID).Error
	if err != nil {
		return nil, err
	}

	posts := []models.Post{post}
	fillPostCounts(posts)
	post = posts[0]
	fillReplyCounts(post.Replies)
	return &post, nil
}

func (h *PostHandler) renderPost(c *gin.Context, code int, post *models.Post, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	obj["Title"] = post.Subject
	obj["Post"] = post
	Render(c, code, "post_reply.html", obj)
}

// Show renders a post with its replies and comments.
func (h *PostHandler) Show(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	post, err := loadPostView(postID)
	if fail(c, err, "load post failed") {
		return
	}
	h.renderPost(c, http.StatusOK, post, gin.H{"Form": BodyForm{}})
}

// Reply appends a reply to a post.
func (h *PostHandler) Reply(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	var exists models.Post
	if fail(c, db.DB.Select("id").First(&exists, postID).Error, "load post failed") {
		return
	}

	var form BodyForm
	if err := c.ShouldBind(&form); err != nil {
		post, lerr := loadPostView(postID)
		if fail(c, lerr, "load post failed") {
			return
		}
		h.renderPost(c, http.StatusBadRequest, post, gin.H{"Form": form, "Errors": formErrors(err)})
		return
	}

	reply := models.Reply{
		Body:     form.Body,
		AuthorID: currentUser(c).ID,
		PostID:   postID,
	}
	if err := db.DB.Omit("Author").Create(&reply).Error; err != nil {
		serverError(c, err, "create reply failed")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s#reply_%d", postURL(postID), reply.ID))
}

const (
	selfLikeNotice    = "You cannot recommend your own writing."
	alreadyLikeNotice = "You have already recommended this."
)

// LikePost adds the current user to the post's recommenders.
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	var post models.Post
	if fail(c, db.DB.First(&post, postID).Error, "load post failed") {
		return
	}

	h.like(c, "post_likes", "post_id", post.ID, post.AuthorID, postURL(post.ID))
}

// LikeReply adds the current user to the reply's recommenders.
func (h *PostHandler) LikeReply(c *gin.Context) {
	replyID, ok := paramID(c, "reply_id")
	if !ok {
		return
	}
	var reply models.Reply
	if fail(c, db.DB.First(&reply, replyID).Error, "load reply failed") {
		return
	}

	h.like(c, "reply_likes", "reply_id", reply.ID, reply.AuthorID, postURL(reply.PostID))
}

// like inserts one row into a like join table. Authors cannot like their own
// content and a user appears at most once per item.
func (h *PostHandler) like(c *gin.Context, table, column string, targetID, authorID uint, back string) {
	user := currentUser(c)
	if user.ID == authorID {
		forbidden(c, selfLikeNotice, back)
		return
	}

	var added bool
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(table).Where(column+" = ? AND user_id = ?", targetID, user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		added = true
		return tx.Table(table).Create(map[string]interface{}{column: targetID, "user_id": user.ID}).Error
	})
	if err != nil {
		serverError(c, err, "like failed")
		return
	}
	if !added {
		forbidden(c, alreadyLikeNotice, back)
		return
	}
	c.Redirect(http.StatusFound, back)
}
