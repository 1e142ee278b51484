package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:128;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:64" json:"name"`
	Location     string    `gorm:"size:64" json:"location"`
	AboutMe      string    `gorm:"type:text" json:"about_me"`
	RoleID       uint      `gorm:"index" json:"role_id"`
	Role         Role      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"role"`
	MemberSince  time.Time `gorm:"autoCreateTime" json:"member_since"`
	LastSeen     time.Time `json:"last_seen"`
}

// Can is the single authorization predicate used by every permission check.
// Role must be preloaded.
func (u *User) Can(perm Permission) bool {
	return u != nil && u.Role.Has(perm)
}

func (u *User) IsAdministrator() bool {
	return u.Can(PermAdmin)
}

// Is reports whether both values refer to the same stored user.
func (u *User) Is(other *User) bool {
	return u != nil && other != nil && u.ID != 0 && u.ID == other.ID
}
