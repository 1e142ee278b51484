package handlers

import (
	"fmt"
	"net/http"

	"darkweb/internal/db"
	"darkweb/internal/models"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct{}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{}
}

const (
	modifyDeniedNotice = "You can only edit your own comments."
	deleteDeniedNotice = "You can only delete your own comments."
)

// parentPostID returns the post whose page shows comments of parent.
func parentPostID(parent models.CommentParent) (uint, error) {
	if !parent.Valid() {
		return 0, fmt.Errorf("comment parent %q/%d is invalid", parent.Kind, parent.ID)
	}
	if parent.Kind == models.ParentPost {
		return parent.ID, nil
	}
	var reply models.Reply
	if err := db.DB.Select("id", "post_id").First(&reply, parent.ID).Error; err != nil {
		return 0, err
	}
	return reply.PostID, nil
}

func commentURL(postID, commentID uint) string {
	return fmt.Sprintf("%s#comment_%d", postURL(postID), commentID)
}

// loadComment finds a comment whose parent is of the given kind. Comments
// under the other kind are reported as not found.
func loadComment(c *gin.Context, kind models.ParentKind) (*models.Comment, uint, bool) {
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return nil, 0, false
	}
	var comment models.Comment
	err := db.DB.Preload("Author").Where("parent_type = ?", string(kind)).First(&comment, commentID).Error
	if fail(c, err, "load comment failed") {
		return nil, 0, false
	}
	postID, err := parentPostID(comment.Parent())
	if fail(c, err, "load comment parent failed") {
		return nil, 0, false
	}
	return &comment, postID, true
}

// resolveParent validates the parent named in the path.
func resolveParent(c *gin.Context, kind models.ParentKind) (models.CommentParent, uint, bool) {
	var param string
	switch kind {
	case models.ParentPost:
		param = "post_id"
	case models.ParentReply:
		param = "reply_id"
	}
	id, ok := paramID(c, param)
	if !ok {
		return models.CommentParent{}, 0, false
	}

	parent := models.CommentParent{Kind: kind, ID: id}
	if kind == models.ParentPost {
		var post models.Post
		if fail(c, db.DB.Select("id").First(&post, id).Error, "load post failed") {
			return parent, 0, false
		}
		return parent, post.ID, true
	}
	postID, err := parentPostID(parent)
	if fail(c, err, "load reply failed") {
		return parent, 0, false
	}
	return parent, postID, true
}

func renderCommentForm(c *gin.Context, code int, obj gin.H) {
	obj["Title"] = "Comment"
	Render(c, code, "comment_write.html", obj)
}

func (h *CommentHandler) showWrite(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := resolveParent(c, kind); !ok {
			return
		}
		renderCommentForm(c, http.StatusOK, gin.H{"Form": BodyForm{}})
	}
}

func (h *CommentHandler) write(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parent, postID, ok := resolveParent(c, kind)
		if !ok {
			return
		}

		var form BodyForm
		if err := c.ShouldBind(&form); err != nil {
			renderCommentForm(c, http.StatusBadRequest, gin.H{"Form": form, "Errors": formErrors(err)})
			return
		}

		comment := models.Comment{Body: form.Body, AuthorID: currentUser(c).ID}
		comment.SetParent(parent)
		if err := db.DB.Omit("Author").Create(&comment).Error; err != nil {
			serverError(c, err, "create comment failed")
			return
		}
		c.Redirect(http.StatusFound, commentURL(postID, comment.ID))
	}
}

func (h *CommentHandler) showModify(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, postID, ok := loadComment(c, kind)
		if !ok {
			return
		}
		if !currentUser(c).Is(&comment.Author) {
			forbidden(c, modifyDeniedNotice, postURL(postID))
			return
		}
		renderCommentForm(c, http.StatusOK, gin.H{"Form": BodyForm{Body: comment.Body}, "Comment": comment})
	}
}

func (h *CommentHandler) modify(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, postID, ok := loadComment(c, kind)
		if !ok {
			return
		}
		if !currentUser(c).Is(&comment.Author) {
			forbidden(c, modifyDeniedNotice, postURL(postID))
			return
		}

		var form BodyForm
		if err := c.ShouldBind(&form); err != nil {
			renderCommentForm(c, http.StatusBadRequest, gin.H{"Form": form, "Comment": comment, "Errors": formErrors(err)})
			return
		}
		if err := db.DB.Model(comment).Update("body", form.Body).Error; err != nil {
			serverError(c, err, "update comment failed")
			return
		}
		c.Redirect(http.StatusFound, commentURL(postID, comment.ID))
	}
}

func (h *CommentHandler) delete(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, postID, ok := loadComment(c, kind)
		if !ok {
			return
		}
		if !currentUser(c).Is(&comment.Author) {
			forbidden(c, deleteDeniedNotice, postURL(postID))
			return
		}
		if err := db.DB.Delete(comment).Error; err != nil {
			serverError(c, err, "delete comment failed")
			return
		}
		c.Redirect(http.StatusFound, postURL(postID))
	}
}

func (h *CommentHandler) ShowWritePostComment(c *gin.Context)  { h.showWrite(models.ParentPost)(c) }
func (h *CommentHandler) WritePostComment(c *gin.Context)      { h.write(models.ParentPost)(c) }
func (h *CommentHandler) ShowModifyPostComment(c *gin.Context) { h.showModify(models.ParentPost)(c) }
func (h *CommentHandler) ModifyPostComment(c *gin.Context)     { h.modify(models.ParentPost)(c) }
func (h *CommentHandler) DeletePostComment(c *gin.Context)     { h.delete(models.ParentPost)(c) }

func (h *CommentHandler) ShowWriteReplyComment(c *gin.Context)  { h.showWrite(models.ParentReply)(c) }
func (h *CommentHandler) WriteReplyComment(c *gin.Context)      { h.write(models.ParentReply)(c) }
func (h *CommentHandler) ShowModifyReplyComment(c *gin.Context) { h.showModify(models.ParentReply)(c) }
func (h *CommentHandler) ModifyReplyComment(c *gin.Context)     { h.modify(models.ParentReply)(c) }
func (h *CommentHandler) DeleteReplyComment(c *gin.Context)     { h.delete(models.ParentReply)(c) }
