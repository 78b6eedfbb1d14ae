package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the notification does not exist or does not belong
	// to the caller. Ownership failures deliberately map to the same error so
	// the API cannot be used to probe for other users' notifications.
	ErrNotFound = errors.New("notifications: not found")

	errMissingDatabase   = errors.New("notifications: database handle is required")
	errMissingIDProvider = errors.New("notifications: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Broadcaster pushes best-effort realtime hints to connected clients. A push
// to an offline user is silently dropped; persisted rows remain the source of
// truth.
type Broadcaster interface {
	PushCount(userID string, unread int64)
}

// QuestionRef locates the question a notification reference resolves to, for
// display purposes only.
type QuestionRef struct {
	QuestionID string
	Title      string
}

// ReferenceResolver follows a notification reference back to its originating
// question. Resolution failures degrade the message, never the listing.
type ReferenceResolver interface {
	QuestionForSolution(ctx context.Context, solutionID string) (QuestionRef, error)
	QuestionForVote(ctx context.Context, voteID string) (QuestionRef, error)
	Question(ctx context.Context, questionID string) (QuestionRef, error)
}

// ServiceConfig describes the dependencies required by the notification service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Broadcast  Broadcaster
	Resolver   ReferenceResolver
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service owns the notification store, the unread counter, and the post-commit
// realtime push.
type Service struct {
	db        *gorm.DB
	ids       IDProvider
	broadcast Broadcaster
	resolver  ReferenceResolver
	clock     func() time.Time
	logger    *zap.Logger
}

// NewService constructs the notification service.
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
		db:        cfg.Database,
		ids:       cfg.IDProvider,
		broadcast: cfg.Broadcast,
		resolver:  cfg.Resolver,
		clock:     clock,
		logger:    logger,
	}, nil
}

// SetResolver installs the reference resolver after construction. The
// resolver lives in a package that itself records notifications, so it
// cannot exist yet when this service is built.
func (s *Service) SetResolver(resolver ReferenceResolver) {
	s.resolver = resolver
}

// Record inserts one unread notification per recipient using the caller's
// transaction handle. An insert failure propagates so the surrounding domain
// write rolls back with it; notifications are transactionally coupled to the
// event that caused them, not a best-effort side channel.
func (s *Service) Record(tx *gorm.DB, recipients []Recipient) error {
	for _, recipient := range recipients {
		id, err := s.ids.NewID()
		if err != nil {
			return err
		}
		record := Notification{
			ID:          id,
			UserID:      recipient.UserID,
			Type:        recipient.Type,
			ReferenceID: recipient.ReferenceID,
			CreatedAt:   s.clock().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// PushUnread recomputes each user's unread count and pushes it to any live
// connections. Counts are always read fresh from storage so the pushed value
// never drifts from persisted state. Failures are logged and swallowed.
func (s *Service) PushUnread(ctx context.Context, userIDs ...string) {
	if s.broadcast == nil {
		return
	}
	for _, userID := range userIDs {
		count, err := s.UnreadCount(ctx, userID)
		if err != nil {
			s.logger.Warn("unread count recompute failed",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		s.broadcast.PushCount(userID, count)
	}
}

// UnreadCount returns the number of unread notifications for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Page holds one page of enriched notifications.
type Page struct {
	Items       []View
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListForUser returns a newest-first page of the user's notifications.
func (s *Service) ListForUser(ctx context.Context, userID string, page, perPage int, unreadOnly bool) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	query := s.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var records []Notification
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error; err != nil {
		return Page{}, err
	}

	items := make([]View, 0, len(records))
	for _, record := range records {
		items = append(items, s.enrich(ctx, record))
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

// MarkRead transitions one notification to read. The notification must belong
// to the caller; anything else reports ErrNotFound.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.PushUnread(ctx, userID)
	return nil
}

// MarkAllRead transitions every unread notification for the user. It is an
// idempotent no-op when nothing is unread.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return err
	}
	s.PushUnread(ctx, userID)
	return nil
}

func (s *Service) enrich(ctx context.Context, record Notification) View {
	view := View{
		ID:          record.ID,
		Type:        string(record.Type),
		ReferenceID: record.ReferenceID,
		IsRead:      record.IsRead,
		CreatedAt:   record.CreatedAt,
		Message:     defaultMessage(record.Type),
	}
	if s.resolver == nil {
		return view
	}

	var ref QuestionRef
	var err error
	switch record.Type {
	case TypeNewAnswer:
		ref, err = s.resolver.QuestionForSolution(ctx, record.ReferenceID)
		if err == nil {
			view.Message = fmt.Sprintf("New answer on %s", ref.Title)
		}
	case TypeVote:
		ref, err = s.resolver.QuestionForVote(ctx, record.ReferenceID)
		if err == nil {
			view.Message = fmt.Sprintf("Your answer on %s received a new vote", ref.Title)
		}
	case TypeFollowUpdate:
		ref, err = s.resolver.Question(ctx, record.ReferenceID)
		if err == nil {
			view.Message = fmt.Sprintf("New follower on %s", ref.Title)
		}
	default:
		return view
	}
	if err != nil {
		s.logger.Debug("notification reference resolution failed",
			zap.String("notification_id", record.ID),
			zap.String("type", string(record.Type)),
			zap.Error(err))
		return view
	}
	view.ActionURL = "/questions/" + ref.QuestionID
	return view
}

func defaultMessage(notificationType Type) string {
	switch notificationType {
	case TypeNewAnswer:
		return "New answer on your question"
	case TypeVote:
		return "Your answer received a new vote"
	case TypeFollowUpdate:
		return "Your question has a new follower"
	default:
		return "Notification"
	}
}
