package models

import (
	"time"
)

type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Timestamp time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Comments  []Comment `gorm:"polymorphic:Parent;polymorphicValue:reply" json:"comments"`
	Likers    []User    `gorm:"many2many:reply_likes;" json:"-"`

	LikeCount int `gorm:"-" json:"like_count"`
}
