package models

import (
	"time"
)

// ParentKind tags which kind of content a comment hangs under.
type ParentKind string

const (
	ParentPost  ParentKind = "post"
	ParentReply ParentKind = "reply"
)

// CommentParent is the tagged parent reference of a comment: exactly one of
// a post or a reply.
type CommentParent struct {
	Kind ParentKind
	ID   uint
}

func PostParent(id uint) CommentParent  { return CommentParent{Kind: ParentPost, ID: id} }
func ReplyParent(id uint) CommentParent { return CommentParent{Kind: ParentReply, ID: id} }

func (p CommentParent) Valid() bool {
	return p.ID != 0 && (p.Kind == ParentPost || p.Kind == ParentReply)
}

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Timestamp  time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
	Disabled   bool      `gorm:"default:false;index" json:"disabled"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentType string    `gorm:"size:8;not null;index:idx_comment_parent" json:"parent_type"`
	ParentID   uint      `gorm:"not null;index:idx_comment_parent" json:"parent_id"`
}

func (c *Comment) Parent() CommentParent {
	return CommentParent{Kind: ParentKind(c.ParentType), ID: c.ParentID}
}

func (c *Comment) SetParent(p CommentParent) {
	c.ParentType = string(p.Kind)
	c.ParentID = p.ID
}
