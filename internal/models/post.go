package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Subject   string    `gorm:"size:128;not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Timestamp time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
	Filepath  string    `gorm:"size:255" json:"filepath"` // secured upload name, empty when nothing attached
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies   []Reply   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies"`
	Comments  []Comment `gorm:"polymorphic:Parent;polymorphicValue:post" json:"comments"`
	Likers    []User    `gorm:"many2many:post_likes;" json:"-"`

	// filled by queries, not stored
	LikeCount  int `gorm:"-" json:"like_count"`
	ReplyCount int `gorm:"-" json:"reply_count"`
}
