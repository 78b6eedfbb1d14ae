package blog

import "time"

// Status enumerates the lifecycle states of a post.
type Status string

const (
	// StatusDraft keeps a post hidden from public listings.
	StatusDraft Status = "draft"
	// StatusPublished exposes a post in public listings.
	StatusPublished Status = "published"
)

// Post is a blog article. The slug is the public identifier and stays
// unique across all posts.
type Post struct {
	ID          string     `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Slug        string     `json:"slug" gorm:"column:slug;size:160;not null;uniqueIndex"`
	Title       string     `json:"title" gorm:"column:title;size:200;not null"`
	Excerpt     string     `json:"excerpt" gorm:"column:excerpt;size:400"`
	Content     string     `json:"content" gorm:"column:content;type:text;not null"`
	CoverImage  string     `json:"cover_image" gorm:"column:cover_image;size:255"`
	Status      Status     `json:"status" gorm:"column:status;size:20;not null;default:'draft'"`
	PublishedAt *time.Time `json:"published_at" gorm:"column:published_at"`
	AuthorID    string     `json:"author_id" gorm:"column:author_id;size:190;not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Post) TableName() string {
	return "blog_posts"
}

// IsPublished reports whether the post is publicly visible.
func (p Post) IsPublished() bool {
	return p.Status == StatusPublished
}
