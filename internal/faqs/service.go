package faqs

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no FAQ matches the requested identifier.
	ErrNotFound = errors.New("faqs: not found")
	// ErrInvalidInput indicates missing question or answer fields.
	ErrInvalidInput = errors.New("faqs: invalid input")

	errMissingDatabase   = errors.New("faqs: database handle is required")
	errMissingIDProvider = errors.New("faqs: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the FAQ service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Clock      func() time.Time
}

// Service manages the curated FAQ catalog.
type Service struct {
	db    *gorm.DB
	ids   IDProvider
	clock func() time.Time
}

// NewService constructs the FAQ service.
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

// Create adds a new FAQ entry.
func (s *Service) Create(ctx context.Context, creatorID, question, answer string) (FAQ, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return FAQ{}, ErrInvalidInput
	}
	id, err := s.ids.NewID()
	if err != nil {
		return FAQ{}, err
	}
	entry := FAQ{ID: id, Question: question, Answer: answer, CreatedBy: creatorID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return FAQ{}, err
	}
	return entry, nil
}

// Page holds one page of FAQ entries.
type Page struct {
	Items       []FAQ
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// List returns a newest-first page of FAQ entries.
func (s *Service) List(ctx context.Context, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&FAQ{}).Count(&total).Error; err != nil {
		return Page{}, err
	}

	var items []FAQ
	err := s.db.WithContext(ctx).
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

// GetByID fetches one FAQ entry.
func (s *Service) GetByID(ctx context.Context, faqID string) (FAQ, error) {
	var entry FAQ
	err := s.db.WithContext(ctx).Where("id = ?", faqID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FAQ{}, ErrNotFound
	}
	if err != nil {
		return FAQ{}, err
	}
	return entry, nil
}

// Update replaces the question and answer of an existing entry.
func (s *Service) Update(ctx context.Context, faqID, question, answer string) (FAQ, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return FAQ{}, ErrInvalidInput
	}
	entry, err := s.GetByID(ctx, faqID)
	if err != nil {
		return FAQ{}, err
	}
	entry.Question = question
	entry.Answer = answer
	entry.UpdatedAt = s.clock().UTC()
	err = s.db.WithContext(ctx).Model(&FAQ{}).
		Where("id = ?", faqID).
		Updates(map[string]any{"question": question, "answer": answer, "updated_at": entry.UpdatedAt}).Error
	if err != nil {
		return FAQ{}, err
	}
	return entry, nil
}

// Delete removes an FAQ entry.
func (s *Service) Delete(ctx context.Context, faqID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", faqID).Delete(&FAQ{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
