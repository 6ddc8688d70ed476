package models

import "time"

// Post holds blog post metadata. The markdown content itself lives in
// external files; comments join posts via slug, so a slug must never change
// once the row exists.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Slug          string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Author        string    `gorm:"size:100" json:"author"`
	AuthorID      *uint     `gorm:"index" json:"author_id"`
	Category      string    `gorm:"size:50;default:'general'" json:"category"`
	FeaturedImage string    `gorm:"size:500" json:"featured_image"`
	IsPublished   bool      `gorm:"not null" json:"is_published"`
	PublishedAt   time.Time `json:"published_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Tags          []Tag     `gorm:"foreignKey:PostID" json:"tags"`
}

func (Post) TableName() string {
	return "blog_posts"
}

// Tag is a free-form label attached to a post.
type Tag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PostID  uint   `gorm:"index;not null" json:"post_id"`
	TagName string `gorm:"size:50;not null" json:"tag_name"`
}

func (Tag) TableName() string {
	return "blog_tags"
}
