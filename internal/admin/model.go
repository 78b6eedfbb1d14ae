package admin

import "time"

// TargetType enumerates what a report can point at.
type TargetType string

const (
	// TargetQuestion reports a question.
	TargetQuestion TargetType = "question"
	// TargetSolution reports a solution.
	TargetSolution TargetType = "solution"
)

// ReportStatus enumerates the moderation states of a report.
type ReportStatus string

const (
	// ReportPending awaits moderator review.
	ReportPending ReportStatus = "pending"
	// ReportResolved was acted on.
	ReportResolved ReportStatus = "resolved"
	// ReportDismissed was reviewed and rejected.
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user complaint about a question or solution.
type Report struct {
	ID         string       `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	UserID     string       `json:"user_id" gorm:"column:user_id;size:190;not null"`
	TargetType TargetType   `json:"target_type" gorm:"column:target_type;size:50;not null"`
	TargetID   string       `json:"target_id" gorm:"column:target_id;size:190;not null"`
	Reason     string       `json:"reason" gorm:"column:reason;size:255;not null"`
	Status     ReportStatus `json:"status" gorm:"column:status;size:20;not null;default:'pending';index"`
	CreatedAt  time.Time    `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
}

// TableName provides the explicit table binding for GORM.
func (Report) TableName() string {
	return "reports"
}

// AuditLog is one immutable record of an admin action.
type AuditLog struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Action    string    `json:"action" gorm:"column:action;size:100;not null"`
	Target    string    `json:"target" gorm:"column:target;size:255;not null"`
	Reason    string    `json:"reason" gorm:"column:reason;size:255"`
	AdminID   string    `json:"admin_id" gorm:"column:admin_id;size:190;not null"`
	AdminName string    `json:"admin_name" gorm:"column:admin_name;size:100;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;autoCreateTime;index"`
}

// TableName provides the explicit table binding for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
