package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moringadesk/backend/internal/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resetTokenTTL = 30 * time.Minute

var (
	// ErrNotFound indicates no account matches the requested identifier.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("users: invalid email or password")
	// ErrInvalidInput indicates missing or malformed registration fields.
	ErrInvalidInput = errors.New("users: invalid input")
	// ErrInvalidResetToken indicates an unknown, expired, or already used reset token.
	ErrInvalidResetToken = errors.New("users: invalid reset token")

	errMissingDatabase   = errors.New("users: database handle is required")
	errMissingHasher     = errors.New("users: password hasher is required")
	errMissingIDProvider = errors.New("users: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// MailSender delivers password reset tokens. Implementations must not block
// the caller on provider outages longer than their own context allows.
type MailSender interface {
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

// ServiceConfig describes the dependencies required by the users service.
type ServiceConfig struct {
	Database   *gorm.DB
	Hasher     *auth.PasswordHasher
	IDProvider IDProvider
	Mail       MailSender
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service manages account registration, authentication, and password resets.
type Service struct {
	db     *gorm.DB
	hasher *auth.PasswordHasher
	ids    IDProvider
	mail   MailSender
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the users service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Hasher == nil {
		return nil, errMissingHasher
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
		db:     cfg.Database,
		hasher: cfg.Hasher,
		ids:    cfg.IDProvider,
		mail:   cfg.Mail,
		clock:  clock,
		logger: logger,
	}, nil
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new student account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return User{}, err
	}

	var existing User
	err = s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return User{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleStudent,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies a login attempt and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID fetches one account.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateProfile changes the display name of an account.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) (User, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return User{}, ErrInvalidInput
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("name", trimmed).Error; err != nil {
		return User{}, err
	}
	user.Name = trimmed
	return user, nil
}

// RequestPasswordReset issues a reset token for the account behind the email.
// It reports success even when no account matches, so callers cannot probe for
// registered addresses.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.ids.NewID()
	if err != nil {
		return err
	}
	record := PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.clock().UTC().Add(resetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	if s.mail != nil {
		if err := s.mail.SendPasswordReset(ctx, user.Email, token); err != nil {
			s.logger.Warn("password reset mail delivery failed",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}

	now := s.clock().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record PasswordResetToken
		err := tx.Where("token = ?", strings.TrimSpace(token)).Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		if record.UsedAt != nil || now.After(record.ExpiresAt) {
			return ErrInvalidResetToken
		}
		if err := tx.Model(&User{}).
			Where("id = ?", record.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(&PasswordResetToken{}).
			Where("token = ?", record.Token).
			Update("used_at", now).Error
	})
}
