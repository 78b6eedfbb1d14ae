package database

import (
	"fmt"

	"github.com/moringadesk/backend/internal/admin"
	"github.com/moringadesk/backend/internal/blog"
	"github.com/moringadesk/backend/internal/faqs"
	"github.com/moringadesk/backend/internal/feedback"
	"github.com/moringadesk/backend/internal/notifications"
	"github.com/moringadesk/backend/internal/questions"
	"github.com/moringadesk/backend/internal/solutions"
	"github.com/moringadesk/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&users.User{},
		&users.PasswordResetToken{},
		&questions.Question{},
		&questions.Tag{},
		&questions.QuestionTag{},
		&questions.RelatedQuestion{},
		&questions.Follow{},
		&solutions.Solution{},
		&solutions.Vote{},
		&notifications.Notification{},
		&faqs.FAQ{},
		&blog.Post{},
		&admin.Report{},
		&admin.AuditLog{},
		&feedback.Entry{},
		&feedback.Subscriber{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
