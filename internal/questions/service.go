package questions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moringadesk/backend/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no question matches the requested identifier.
	ErrNotFound = errors.New("questions: not found")
	// ErrInvalidInput indicates missing or malformed question fields.
	ErrInvalidInput = errors.New("questions: invalid input")
	// ErrForbidden indicates the actor may not modify the question.
	ErrForbidden = errors.New("questions: forbidden")
	// ErrSelfLink indicates an attempt to relate a question to itself.
	ErrSelfLink = errors.New("questions: cannot relate a question to itself")

	errMissingDatabase   = errors.New("questions: database handle is required")
	errMissingIDProvider = errors.New("questions: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the questions service.
type ServiceConfig struct {
	Database      *gorm.DB
	IDProvider    IDProvider
	Notifications *notifications.Service
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Service manages questions, tags, related links, and follow subscriptions.
type Service struct {
	db            *gorm.DB
	ids           IDProvider
	notifications *notifications.Service
	clock         func() time.Time
	logger        *zap.Logger
}

// NewService constructs the questions service.
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
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:            cfg.Database,
		ids:           cfg.IDProvider,
		notifications: cfg.Notifications,
		clock:         clock,
		logger:        logger,
	}, nil
}

// CreateInput carries the fields for a new question.
type CreateInput struct {
	Title    string
	Body     string
	Category string
	Tags     []string
}

// Create persists a new question with its tags.
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput) (View, error) {
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" || body == "" {
		return View{}, ErrInvalidInput
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "technical"
	}

	id, err := s.ids.NewID()
	if err != nil {
		return View{}, err
	}
	question := Question{
		ID:       id,
		UserID:   authorID,
		Title:    title,
		Body:     body,
		Category: category,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		return s.setTags(tx, question.ID, input.Tags)
	})
	if txErr != nil {
		return View{}, txErr
	}

	return s.view(ctx, question)
}

// GetByID fetches one question with its tags.
func (s *Service) GetByID(ctx context.Context, questionID string) (View, error) {
	var question Question
	err := s.db.WithContext(ctx).Where("id = ?", questionID).Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, question)
}

// Page holds one page of questions.
type Page struct {
	Items       []View
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// List returns a newest-first page of questions, optionally filtered by
// category and a title/body search term.
func (s *Service) List(ctx context.Context, page, perPage int, category, search string) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	query := s.db.WithContext(ctx).Model(&Question{})
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("category = ?", category)
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var records []Question
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error; err != nil {
		return Page{}, err
	}

	items := make([]View, 0, len(records))
	for _, record := range records {
		view, err := s.view(ctx, record)
		if err != nil {
			return Page{}, err
		}
		items = append(items, view)
	}

	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}

	return Page{
		Items:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// ListByAuthor returns every question posted by the user, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]View, error) {
	var records []Question
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", authorID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]View, 0, len(records))
	for _, record := range records {
		view, err := s.view(ctx, record)
		if err != nil {
			return nil, err
		}
		items = append(items, view)
	}
	return items, nil
}

// UpdateInput carries the mutable question fields.
type UpdateInput struct {
	Title    string
	Body     string
	Category string
	Tags     []string
}

// Update rewrites a question. Only the author or an admin may update.
func (s *Service) Update(ctx context.Context, questionID, actorID string, actorIsAdmin bool, input UpdateInput) (View, error) {
	var question Question
	err := s.db.WithContext(ctx).Where("id = ?", questionID).Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, err
	}
	if question.UserID != actorID && !actorIsAdmin {
		return View{}, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" || body == "" {
		return View{}, ErrInvalidInput
	}
	question.Title = title
	question.Body = body
	if category := strings.TrimSpace(input.Category); category != "" {
		question.Category = category
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&question).Error; err != nil {
			return err
		}
		if input.Tags == nil {
			return nil
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&QuestionTag{}).Error; err != nil {
			return err
		}
		return s.setTags(tx, question.ID, input.Tags)
	})
	if txErr != nil {
		return View{}, txErr
	}
	return s.view(ctx, question)
}

// Delete removes a question and its dependent rows. Only the author or an
// admin may delete.
func (s *Service) Delete(ctx context.Context, questionID, actorID string, actorIsAdmin bool) error {
	var question Question
	err := s.db.WithContext(ctx).Where("id = ?", questionID).Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if question.UserID != actorID && !actorIsAdmin {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&QuestionTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ? OR related_question_id = ?", questionID, questionID).
			Delete(&RelatedQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Question{}, "id = ?", questionID).Error
	})
}

// FollowQuestion subscribes a user to a question. Following twice is a no-op.
// The question author is notified of the new follower in the same transaction.
func (s *Service) FollowQuestion(ctx context.Context, questionID, userID string) error {
	var question Question
	err := s.db.WithContext(ctx).Where("id = ?", questionID).Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	recipients := notifications.ResolveFollowAdded(question.UserID, userID, question.ID)

	created := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Follow
		err := tx.Where("user_id = ? AND question_id = ?", userID, questionID).Take(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&Follow{UserID: userID, QuestionID: questionID}).Error; err != nil {
			return err
		}
		created = true
		if s.notifications == nil {
			return nil
		}
		return s.notifications.Record(tx, recipients)
	})
	if txErr != nil {
		return txErr
	}

	if created && s.notifications != nil {
		for _, recipient := range recipients {
			s.notifications.PushUnread(ctx, recipient.UserID)
		}
	}
	return nil
}

// UnfollowQuestion removes a subscription. Unfollowing twice is a no-op.
func (s *Service) UnfollowQuestion(ctx context.Context, questionID, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&Follow{}).Error
}

// FollowerIDs enumerates the user ids subscribed to a question.
func (s *Service) FollowerIDs(ctx context.Context, questionID string) ([]string, error) {
	var followerIDs []string
	err := s.db.WithContext(ctx).Model(&Follow{}).
		Where("question_id = ?", questionID).
		Pluck("user_id", &followerIDs).Error
	if err != nil {
		return nil, err
	}
	return followerIDs, nil
}

// LinkRelated records that two questions cover similar problems. Linking is
// idempotent; self-links are rejected.
func (s *Service) LinkRelated(ctx context.Context, questionID, relatedQuestionID string) error {
	if questionID == relatedQuestionID {
		return ErrSelfLink
	}
	for _, id := range []string{questionID, relatedQuestionID} {
		var question Question
		err := s.db.WithContext(ctx).Where("id = ?", id).Take(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
	}

	var existing RelatedQuestion
	err := s.db.WithContext(ctx).
		Where("question_id = ? AND related_question_id = ?", questionID, relatedQuestionID).
		Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(&RelatedQuestion{
		QuestionID:        questionID,
		RelatedQuestionID: relatedQuestionID,
	}).Error
}

// ListRelated returns the questions linked to the given one.
func (s *Service) ListRelated(ctx context.Context, questionID string) ([]View, error) {
	var relatedIDs []string
	err := s.db.WithContext(ctx).Model(&RelatedQuestion{}).
		Where("question_id = ?", questionID).
		Pluck("related_question_id", &relatedIDs).Error
	if err != nil {
		return nil, err
	}
	if len(relatedIDs) == 0 {
		return []View{}, nil
	}

	var records []Question
	if err := s.db.WithContext(ctx).Where("id IN ?", relatedIDs).Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]View, 0, len(records))
	for _, record := range records {
		view, err := s.view(ctx, record)
		if err != nil {
			return nil, err
		}
		items = append(items, view)
	}
	return items, nil
}

// QuestionRef implements the notification reference resolver contract for
// follow_update references.
func (s *Service) QuestionRef(ctx context.Context, questionID string) (notifications.QuestionRef, error) {
	var question Question
	err := s.db.WithContext(ctx).Where("id = ?", questionID).Take(&question).Error
	if err != nil {
		return notifications.QuestionRef{}, err
	}
	return notifications.QuestionRef{QuestionID: question.ID, Title: question.Title}, nil
}

func (s *Service) setTags(tx *gorm.DB, questionID string, tagNames []string) error {
	seen := make(map[string]bool, len(tagNames))
	for _, rawName := range tagNames {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag Tag
		err := tx.Where("name = ?", name).Take(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tagID, idErr := s.ids.NewID()
			if idErr != nil {
				return idErr
			}
			tag = Tag{ID: tagID, Name: name}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(&QuestionTag{QuestionID: questionID, TagID: tag.ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListTags returns all known tags sorted by name.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Service) view(ctx context.Context, question Question) (View, error) {
	var tagNames []string
	err := s.db.WithContext(ctx).Model(&Tag{}).
		Joins("JOIN question_tags ON question_tags.tag_id = tags.id").
		Where("question_tags.question_id = ?", question.ID).
		Order("tags.name ASC").
		Pluck("tags.name", &tagNames).Error
	if err != nil {
		return View{}, err
	}
	if tagNames == nil {
		tagNames = []string{}
	}
	return View{Question: question, Tags: tagNames}, nil
}
