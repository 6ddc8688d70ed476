package models

import "time"

// Comment is a reply on a blog post, joined by slug rather than post id.
// ParentID threads replies one level deep; deletion is soft so reply chains
// stay intact.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostSlug  string    `gorm:"size:200;index;not null" json:"post_slug"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsDeleted bool      `gorm:"default:false" json:"is_deleted"`
	IPAddress string    `gorm:"size:45" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    User      `json:"author"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// CommentLike records a single user's like or dislike on a comment. The
// unique pair constraint makes the toggle race-safe.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"index;uniqueIndex:uq_comment_user_like;not null" json:"comment_id"`
	UserID    uint      `gorm:"index;uniqueIndex:uq_comment_user_like;not null" json:"user_id"`
	IsLike    bool      `gorm:"not null" json:"is_like"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
