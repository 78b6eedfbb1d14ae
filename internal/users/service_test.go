package users

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moringadesk/backend/internal/auth"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("id-%d", s.next), nil
}

type capturingMailSender struct {
	mu     sync.Mutex
	emails []string
	tokens []string
	err    error
}

func (m *capturingMailSender) SendPasswordReset(_ context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, toEmail)
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *capturingMailSender) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tokens) == 0 {
		t.Fatalf("expected a reset token to be sent")
	}
	return m.tokens[len(m.tokens)-1]
}

type usersFixture struct {
	service *Service
	mail    *capturingMailSender
	now     *time.Time
}

func newUsersFixture(t *testing.T) usersFixture {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "users.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &PasswordResetToken{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	now := time.Unix(1756700000, 0).UTC()
	mail := &capturingMailSender{}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Hasher:     auth.NewPasswordHasher(),
		IDProvider: &sequentialIDs{},
		Mail:       mail,
		Clock:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return usersFixture{service: service, mail: mail, now: &now}
}

func (f usersFixture) mustRegister(t *testing.T, name, email, password string) User {
	t.Helper()
	account, err := f.service.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	return account
}

func TestRegisterAssignsStudentRoleAndHashesPassword(t *testing.T) {
	f := newUsersFixture(t)
	account := f.mustRegister(t, "Asha", "Asha@Example.COM", "s3cretpass")

	if account.Role != RoleStudent {
		t.Fatalf("expected student role, got %q", account.Role)
	}
	if account.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash == "s3cretpass" || account.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newUsersFixture(t)
	f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		Email:    "ASHA@example.com",
		Password: "otherpass1",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newUsersFixture(t)
	_, err := f.service.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newUsersFixture(t)
	f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")

	account, err := f.service.Authenticate(context.Background(), "ASHA@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("unexpected authenticate error: %v", err)
	}
	if account.Name != "Asha" {
		t.Fatalf("unexpected account: %#v", account)
	}

	if _, err := f.service.Authenticate(context.Background(), "asha@example.com", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := f.service.Authenticate(context.Background(), "ghost@example.com", "s3cretpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newUsersFixture(t)
	account := f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")

	updated, err := f.service.UpdateProfile(context.Background(), account.ID, "  Asha N.  ")
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Name != "Asha N." {
		t.Fatalf("expected trimmed name, got %q", updated.Name)
	}
	if _, err := f.service.UpdateProfile(context.Background(), account.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newUsersFixture(t)
	f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")

	if err := f.service.RequestPasswordReset(context.Background(), "asha@example.com"); err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	token := f.mail.lastToken(t)

	if err := f.service.ResetPassword(context.Background(), token, "newpassword1"); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if _, err := f.service.Authenticate(context.Background(), "asha@example.com", "newpassword1"); err != nil {
		t.Fatalf("expected new password to work: %v", err)
	}
	if _, err := f.service.Authenticate(context.Background(), "asha@example.com", "s3cretpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}

	// Tokens are single use.
	if err := f.service.ResetPassword(context.Background(), token, "anotherpass1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}
}

func TestPasswordResetUnknownEmailDoesNotLeak(t *testing.T) {
	f := newUsersFixture(t)
	if err := f.service.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if len(f.mail.tokens) != 0 {
		t.Fatalf("expected no mail for unknown email")
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newUsersFixture(t)
	f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")

	if err := f.service.RequestPasswordReset(context.Background(), "asha@example.com"); err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	token := f.mail.lastToken(t)

	*f.now = f.now.Add(31 * time.Minute)
	if err := f.service.ResetPassword(context.Background(), token, "newpassword1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken after expiry, got %v", err)
	}
}

func TestPasswordResetSurvivesMailFailure(t *testing.T) {
	f := newUsersFixture(t)
	f.mustRegister(t, "Asha", "asha@example.com", "s3cretpass")
	f.mail.err = errors.New("smtp down")

	if err := f.service.RequestPasswordReset(context.Background(), "asha@example.com"); err != nil {
		t.Fatalf("expected request to succeed despite mail failure, got %v", err)
	}
}
