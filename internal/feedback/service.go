package feedback

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no entry matches the requested identifier.
	ErrNotFound = errors.New("feedback: not found")
	// ErrInvalidInput indicates missing or out-of-range fields.
	ErrInvalidInput = errors.New("feedback: invalid input")

	errMissingDatabase   = errors.New("feedback: database handle is required")
	errMissingIDProvider = errors.New("feedback: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the feedback service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Clock      func() time.Time
}

// Service manages filed feedback and newsletter signups.
type Service struct {
	db    *gorm.DB
	ids   IDProvider
	clock func() time.Time
}

// NewService constructs the feedback service.
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

// CreateInput carries a new bug report or feature request. UserID may be
// empty for anonymous submissions.
type CreateInput struct {
	Type         EntryType
	Title        string
	Description  string
	Priority     Priority
	ContactName  string
	ContactEmail string
}

func validPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

func validStatus(s Status) bool {
	return s == StatusOpen || s == StatusReviewing || s == StatusResolved || s == StatusClosed
}

// Create files a new feedback entry.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (Entry, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return Entry{}, ErrInvalidInput
	}
	if input.Type != TypeBug && input.Type != TypeFeature {
		return Entry{}, ErrInvalidInput
	}
	priority := input.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !validPriority(priority) {
		return Entry{}, ErrInvalidInput
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:           id,
		Type:         input.Type,
		Title:        title,
		Description:  description,
		Priority:     priority,
		Status:       StatusOpen,
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactEmail: strings.TrimSpace(strings.ToLower(input.ContactEmail)),
		UserID:       userID,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Page holds one page of feedback entries.
type Page struct {
	Items       []Entry
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListFilter narrows a feedback listing.
type ListFilter struct {
	Type     EntryType
	Status   Status
	Priority Priority
}

// List returns a newest-first page of feedback entries.
func (s *Service) List(ctx context.Context, page, perPage int, filter ListFilter) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&Entry{})
	if filter.Type != "" {
		query = query.Where("feedback_type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var items []Entry
	err := query.
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

// UpdateInput carries triage changes. Nil fields stay untouched.
type UpdateInput struct {
	Status   *Status
	Priority *Priority
}

// UpdateTriage moves an entry through the triage lifecycle.
func (s *Service) UpdateTriage(ctx context.Context, entryID string, input UpdateInput) (Entry, error) {
	updates := map[string]any{}
	if input.Status != nil {
		if !validStatus(*input.Status) {
			return Entry{}, ErrInvalidInput
		}
		updates["status"] = *input.Status
	}
	if input.Priority != nil {
		if !validPriority(*input.Priority) {
			return Entry{}, ErrInvalidInput
		}
		updates["priority"] = *input.Priority
	}
	if len(updates) == 0 {
		return Entry{}, ErrInvalidInput
	}
	updates["updated_at"] = s.clock().UTC()

	var entry Entry
	err := s.db.WithContext(ctx).Where("id = ?", entryID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	if err := s.db.WithContext(ctx).Model(&Entry{}).Where("id = ?", entryID).Updates(updates).Error; err != nil {
		return Entry{}, err
	}
	err = s.db.WithContext(ctx).Where("id = ?", entryID).Take(&entry).Error
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Subscribe records a newsletter signup. Re-subscribing an existing email
// reports created=false without error.
func (s *Service) Subscribe(ctx context.Context, emailAddress, source string) (Subscriber, bool, error) {
	emailAddress = strings.TrimSpace(strings.ToLower(emailAddress))
	if emailAddress == "" || !strings.Contains(emailAddress, "@") {
		return Subscriber{}, false, ErrInvalidInput
	}

	var existing Subscriber
	err := s.db.WithContext(ctx).Where("email = ?", emailAddress).Take(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Subscriber{}, false, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Subscriber{}, false, err
	}
	subscriber := Subscriber{ID: id, Email: emailAddress, Source: strings.TrimSpace(source)}
	if err := s.db.WithContext(ctx).Create(&subscriber).Error; err != nil {
		// A concurrent signup may have won the unique index race.
		fetchErr := s.db.WithContext(ctx).Where("email = ?", emailAddress).Take(&existing).Error
		if fetchErr == nil {
			return existing, false, nil
		}
		return Subscriber{}, false, err
	}
	return subscriber, true, nil
}
