package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no post matches the requested identifier.
	ErrNotFound = errors.New("blog: not found")
	// ErrInvalidInput indicates missing or malformed post fields.
	ErrInvalidInput = errors.New("blog: invalid input")

	errMissingDatabase   = errors.New("blog: database handle is required")
	errMissingIDProvider = errors.New("blog: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the blog service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Clock      func() time.Time
}

// Service manages blog posts and their publication lifecycle.
type Service struct {
	db    *gorm.DB
	ids   IDProvider
	clock func() time.Time
}

// NewService constructs the blog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, ids: cfg.IDProvider, clock: clock}, nil
}

// CreateInput carries the fields for a new post. Slug is optional; when
// empty it is derived from the title.
type CreateInput struct {
	Title       string
	Content     string
	Excerpt     string
	CoverImage  string
	Slug        string
	Status      Status
	PublishedAt *time.Time
}

// Create persists a new post. Publishing without an explicit timestamp
// stamps the post with the current time; a draft never carries one.
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput) (Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return Post{}, ErrInvalidInput
	}
	status := input.Status
	if status == "" {
		status = StatusDraft
	}
	if status != StatusDraft && status != StatusPublished {
		return Post{}, ErrInvalidInput
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Post{}, err
	}
	post := Post{
		ID:         id,
		Title:      title,
		Excerpt:    strings.TrimSpace(input.Excerpt),
		Content:    content,
		CoverImage: strings.TrimSpace(input.CoverImage),
		Status:     status,
		AuthorID:   authorID,
	}
	switch {
	case status == StatusPublished && input.PublishedAt != nil:
		post.PublishedAt = input.PublishedAt
	case status == StatusPublished:
		now := s.clock().UTC()
		post.PublishedAt = &now
	}

	baseSlug := strings.TrimSpace(input.Slug)
	if baseSlug == "" {
		baseSlug = slugify(title)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := ensureUniqueSlug(tx, baseSlug, "")
		if err != nil {
			return err
		}
		post.Slug = slug
		return tx.Create(&post).Error
	})
	if txErr != nil {
		return Post{}, txErr
	}
	return post, nil
}

// Get fetches a post by id or slug. Unpublished posts stay hidden unless
// includeUnpublished is set.
func (s *Service) Get(ctx context.Context, identifier string, includeUnpublished bool) (Post, error) {
	var post Post
	err := s.db.WithContext(ctx).
		Where("id = ? OR slug = ?", identifier, identifier).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	if !includeUnpublished && !post.IsPublished() {
		return Post{}, ErrNotFound
	}
	return post, nil
}

// Page holds one page of posts.
type Page struct {
	Items       []Post
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListFilter narrows a post listing.
type ListFilter struct {
	Status             Status
	Search             string
	AuthorID           string
	IncludeUnpublished bool
}

// List returns a page of posts ordered by publication time, newest first,
// with drafts sorted by creation time after everything published.
func (s *Service) List(ctx context.Context, page, perPage int, filter ListFilter) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	query := s.db.WithContext(ctx).Model(&Post{})
	if !filter.IncludeUnpublished {
		query = query.Where("status = ?", StatusPublished)
	} else if filter.Status == StatusDraft || filter.Status == StatusPublished {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(excerpt) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var items []Post
	err := query.
		Order("published_at IS NULL").
		Order("published_at DESC").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return Page{}, err
	}
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return Page{Items: items, Total: total, Pages: pages, CurrentPage: page, PerPage: perPage}, nil
}

// UpdateInput carries optional replacement fields; nil fields stay as-is.
type UpdateInput struct {
	Title       *string
	Slug        *string
	Excerpt     *string
	Content     *string
	CoverImage  *string
	Status      *Status
	PublishedAt *time.Time
}

// Update patches a post. Retitling without a slug override regenerates the
// slug; moving into published stamps a publication time, moving out clears
// it.
func (s *Service) Update(ctx context.Context, postID string, input UpdateInput) (Post, error) {
	var post Post
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", postID).Take(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrInvalidInput
			}
			post.Title = title
			if input.Slug == nil {
				slug, err := ensureUniqueSlug(tx, slugify(title), post.ID)
				if err != nil {
					return err
				}
				post.Slug = slug
			}
		}
		if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
			slug, err := ensureUniqueSlug(tx, strings.TrimSpace(*input.Slug), post.ID)
			if err != nil {
				return err
			}
			post.Slug = slug
		}
		if input.Excerpt != nil {
			post.Excerpt = strings.TrimSpace(*input.Excerpt)
		}
		if input.Content != nil {
			content := strings.TrimSpace(*input.Content)
			if content == "" {
				return ErrInvalidInput
			}
			post.Content = content
		}
		if input.CoverImage != nil {
			post.CoverImage = strings.TrimSpace(*input.CoverImage)
		}

		if input.Status != nil {
			status := *input.Status
			if status != StatusDraft && status != StatusPublished {
				return ErrInvalidInput
			}
			post.Status = status
			switch {
			case status == StatusPublished && input.PublishedAt != nil:
				post.PublishedAt = input.PublishedAt
			case status == StatusPublished && post.PublishedAt == nil:
				now := s.clock().UTC()
				post.PublishedAt = &now
			case status != StatusPublished:
				post.PublishedAt = nil
			}
		} else if input.PublishedAt != nil {
			post.PublishedAt = input.PublishedAt
		}

		post.UpdatedAt = s.clock().UTC()
		return tx.Save(&post).Error
	})
	if txErr != nil {
		return Post{}, txErr
	}
	return post, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, postID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", postID).Delete(&Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
