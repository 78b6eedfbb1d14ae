package notifications

import "time"

// Type enumerates the notification kinds persisted by the store.
type Type string

const (
	// TypeNewAnswer is recorded when a solution is posted on a question the
	// recipient authored or follows. Reference is the solution id.
	TypeNewAnswer Type = "new_answer"
	// TypeVote is recorded when a solution transitions into an upvoted state.
	// Reference is the vote id.
	TypeVote Type = "vote"
	// TypeFollowUpdate is recorded when a question gains a follower.
	// Reference is the question id.
	TypeFollowUpdate Type = "follow_update"
)

// Notification is one persisted per-user notification event.
type Notification struct {
	ID          string    `gorm:"column:id;primaryKey;size:190;not null"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index:idx_notifications_user_read,priority:1"`
	Type        Type      `gorm:"column:type;size:20;not null"`
	ReferenceID string    `gorm:"column:reference_id;size:190;not null"`
	IsRead      bool      `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read,priority:2"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName provides the explicit table binding for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// View is the enriched notification shape returned to clients. Message and
// ActionURL are display hints derived from the reference; they are not part of
// the stored record.
type View struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ReferenceID string    `json:"reference_id"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	Message     string    `json:"message"`
	ActionURL   string    `json:"action_url,omitempty"`
}
