package admin

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/moringadesk/backend/internal/questions"
	"github.com/moringadesk/backend/internal/solutions"
	"github.com/moringadesk/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no report matches the requested identifier.
	ErrNotFound = errors.New("admin: not found")
	// ErrInvalidInput indicates missing or malformed report fields.
	ErrInvalidInput = errors.New("admin: invalid input")

	errMissingDatabase   = errors.New("admin: database handle is required")
	errMissingIDProvider = errors.New("admin: id provider is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the admin service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service handles moderation reports, the audit log, and dashboard
// aggregates.
type Service struct {
	db     *gorm.DB
	ids    IDProvider
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the admin service.
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
	return &Service{db: cfg.Database, ids: cfg.IDProvider, clock: clock, logger: logger}, nil
}

// FileReport records a complaint about a question or solution.
func (s *Service) FileReport(ctx context.Context, reporterID string, targetType TargetType, targetID, reason string) (Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || targetID == "" {
		return Report{}, ErrInvalidInput
	}
	if targetType != TargetQuestion && targetType != TargetSolution {
		return Report{}, ErrInvalidInput
	}
	id, err := s.ids.NewID()
	if err != nil {
		return Report{}, err
	}
	report := Report{
		ID:         id,
		UserID:     reporterID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Status:     ReportPending,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return Report{}, err
	}
	return report, nil
}

// ReportPage holds one page of reports.
type ReportPage struct {
	Items       []Report
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListReports returns a newest-first page of reports, optionally filtered
// by status.
func (s *Service) ListReports(ctx context.Context, page, perPage int, status ReportStatus) (ReportPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ReportPage{}, err
	}

	var items []Report
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return ReportPage{}, err
	}
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return ReportPage{Items: items, Total: total, Pages: pages, CurrentPage: page, PerPage: perPage}, nil
}

// ResolveReport moves a report out of pending and records the decision in
// the audit log.
func (s *Service) ResolveReport(ctx context.Context, reportID string, status ReportStatus, adminID, adminName, reason string) (Report, error) {
	if status != ReportResolved && status != ReportDismissed {
		return Report{}, ErrInvalidInput
	}

	var report Report
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", reportID).Take(&report).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		report.Status = status
		if err := tx.Model(&Report{}).Where("id = ?", reportID).Update("status", status).Error; err != nil {
			return err
		}
		return s.appendAudit(tx, AuditLog{
			Action:    "Report " + string(status),
			Target:    string(report.TargetType) + " " + report.TargetID,
			Reason:    strings.TrimSpace(reason),
			AdminID:   adminID,
			AdminName: adminName,
		})
	})
	if txErr != nil {
		return Report{}, txErr
	}
	return report, nil
}

// RecordAction appends an admin action to the audit log.
func (s *Service) RecordAction(ctx context.Context, action, target, reason, adminID, adminName string) error {
	action = strings.TrimSpace(action)
	target = strings.TrimSpace(target)
	if action == "" || target == "" {
		return ErrInvalidInput
	}
	return s.appendAudit(s.db.WithContext(ctx), AuditLog{
		Action:    action,
		Target:    target,
		Reason:    strings.TrimSpace(reason),
		AdminID:   adminID,
		AdminName: adminName,
	})
}

// AuditPage holds one page of audit records.
type AuditPage struct {
	Items       []AuditLog
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListAuditLog returns a newest-first page of audit records.
func (s *Service) ListAuditLog(ctx context.Context, page, perPage int) (AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&AuditLog{}).Count(&total).Error; err != nil {
		return AuditPage{}, err
	}

	var items []AuditLog
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return AuditPage{}, err
	}
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return AuditPage{Items: items, Total: total, Pages: pages, CurrentPage: page, PerPage: perPage}, nil
}

// Dashboard aggregates the platform counters shown on the admin landing
// page.
type Dashboard struct {
	TotalUsers        int64   `json:"total_users"`
	TotalQuestions    int64   `json:"total_questions"`
	AnsweredQuestions int64   `json:"answered_questions"`
	TotalSolutions    int64   `json:"total_solutions"`
	TotalVotes        int64   `json:"total_votes"`
	FollowedQuestions int64   `json:"followed_questions"`
	PendingReports    int64   `json:"pending_reports"`
	AnswerRate        float64 `json:"answer_rate"`
}

// GetDashboard computes the platform-wide counters.
func (s *Service) GetDashboard(ctx context.Context) (Dashboard, error) {
	var dashboard Dashboard
	db := s.db.WithContext(ctx)

	if err := db.Model(&users.User{}).Count(&dashboard.TotalUsers).Error; err != nil {
		return Dashboard{}, err
	}
	if err := db.Model(&questions.Question{}).Count(&dashboard.TotalQuestions).Error; err != nil {
		return Dashboard{}, err
	}
	err := db.Model(&solutions.Solution{}).
		Distinct("question_id").
		Count(&dashboard.AnsweredQuestions).Error
	if err != nil {
		return Dashboard{}, err
	}
	if err := db.Model(&solutions.Solution{}).Count(&dashboard.TotalSolutions).Error; err != nil {
		return Dashboard{}, err
	}
	if err := db.Model(&solutions.Vote{}).Count(&dashboard.TotalVotes).Error; err != nil {
		return Dashboard{}, err
	}
	err = db.Model(&questions.Follow{}).
		Distinct("question_id").
		Count(&dashboard.FollowedQuestions).Error
	if err != nil {
		return Dashboard{}, err
	}
	err = db.Model(&Report{}).
		Where("status = ?", ReportPending).
		Count(&dashboard.PendingReports).Error
	if err != nil {
		return Dashboard{}, err
	}

	if dashboard.TotalQuestions > 0 {
		rate := float64(dashboard.AnsweredQuestions) / float64(dashboard.TotalQuestions) * 100
		dashboard.AnswerRate = math.Round(rate*10) / 10
	}
	return dashboard, nil
}

// PublicStats holds the landing-page counters.
type PublicStats struct {
	Questions   int64 `json:"questions"`
	Answers     int64 `json:"answers"`
	Users       int64 `json:"users"`
	Communities int64 `json:"communities"`
}

// GetPublicStats computes the aggregate counts exposed without auth.
func (s *Service) GetPublicStats(ctx context.Context) (PublicStats, error) {
	var stats PublicStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&questions.Question{}).Count(&stats.Questions).Error; err != nil {
		return PublicStats{}, err
	}
	if err := db.Model(&solutions.Solution{}).Count(&stats.Answers).Error; err != nil {
		return PublicStats{}, err
	}
	if err := db.Model(&users.User{}).Count(&stats.Users).Error; err != nil {
		return PublicStats{}, err
	}
	if err := db.Model(&questions.Tag{}).Count(&stats.Communities).Error; err != nil {
		return PublicStats{}, err
	}
	return stats, nil
}

func (s *Service) appendAudit(tx *gorm.DB, entry AuditLog) error {
	id, err := s.ids.NewID()
	if err != nil {
		return err
	}
	entry.ID = id
	entry.Timestamp = s.clock().UTC()
	return tx.Create(&entry).Error
}
