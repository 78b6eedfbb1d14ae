package feedback

import "time"

// EntryType enumerates what kind of feedback was filed.
type EntryType string

const (
	// TypeBug reports broken behavior.
	TypeBug EntryType = "bug"
	// TypeFeature requests new behavior.
	TypeFeature EntryType = "feature"
)

// Priority enumerates triage urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Status enumerates the triage lifecycle of an entry.
type Status string

const (
	StatusOpen      Status = "open"
	StatusReviewing Status = "reviewing"
	StatusResolved  Status = "resolved"
	StatusClosed    Status = "closed"
)

// Entry is one bug report or feature request. UserID is empty when the
// submitter was not signed in.
type Entry struct {
	ID           string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Type         EntryType `json:"type" gorm:"column:feedback_type;size:20;not null"`
	Title        string    `json:"title" gorm:"column:title;size:200;not null"`
	Description  string    `json:"description" gorm:"column:description;type:text;not null"`
	Priority     Priority  `json:"priority" gorm:"column:priority;size:20;not null;default:'normal'"`
	Status       Status    `json:"status" gorm:"column:status;size:20;not null;default:'open';index"`
	ContactName  string    `json:"contact_name" gorm:"column:contact_name;size:100"`
	ContactEmail string    `json:"contact_email" gorm:"column:contact_email;size:255"`
	UserID       string    `json:"user_id,omitempty" gorm:"column:user_id;size:190"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "feedback"
}

// Subscriber is one newsletter signup. Email is unique; re-subscribing is
// a no-op.
type Subscriber struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Email     string    `json:"email" gorm:"column:email;size:255;not null;uniqueIndex"`
	Source    string    `json:"source,omitempty" gorm:"column:source;size:100"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Subscriber) TableName() string {
	return "newsletter_subscribers"
}
