package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a community member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email         string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	FullName      string     `gorm:"size:100" json:"full_name"`
	Bio           string     `gorm:"type:text" json:"bio"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	RegisterIP    string     `gorm:"size:45" json:"-"`

	RoleID *uint `gorm:"index" json:"role_id"`
	Role   *Role `json:"role,omitempty"`
	RankID *uint `gorm:"index" json:"rank_id"`
	Rank   *Rank `json:"rank,omitempty"`

	// Reputation counters, owned by the reputation engine. The score only
	// ever increases and the rank only ever moves to a higher level.
	TotalComments      int `gorm:"default:0" json:"total_comments"`
	TotalLikesReceived int `gorm:"default:0" json:"total_likes_received"`
	TotalPosts         int `gorm:"default:0" json:"total_posts"`
	ReputationScore    int `gorm:"default:0" json:"reputation_score"`

	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
