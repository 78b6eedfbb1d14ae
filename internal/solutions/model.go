package solutions

import "time"

// VoteType enumerates the accepted vote directions.
type VoteType string

const (
	// VoteUp marks a solution as helpful.
	VoteUp VoteType = "up"
	// VoteDown marks a solution as unhelpful.
	VoteDown VoteType = "down"
)

// Solution is an answer posted against a question.
type Solution struct {
	ID         string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	QuestionID string    `json:"question_id" gorm:"column:question_id;size:190;not null;index"`
	UserID     string    `json:"user_id" gorm:"column:user_id;size:190;not null;index"`
	Content    string    `json:"content" gorm:"column:content;type:text;not null"`
	IsAccepted bool      `json:"is_accepted" gorm:"column:is_accepted;not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Solution) TableName() string {
	return "solutions"
}

// Vote is one user's vote on one solution. The (user, solution) pair is
// unique; casting again upserts the direction.
type Vote struct {
	ID         string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	SolutionID string    `json:"solution_id" gorm:"column:solution_id;size:190;not null;uniqueIndex:idx_votes_user_solution,priority:2"`
	UserID     string    `json:"user_id" gorm:"column:user_id;size:190;not null;uniqueIndex:idx_votes_user_solution,priority:1"`
	Type       VoteType  `json:"type" gorm:"column:vote_type;size:10;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Vote) TableName() string {
	return "votes"
}

// View is a solution with its vote tallies attached.
type View struct {
	Solution
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Score     int64 `json:"score"`
}

// VoteResult reports the outcome of a vote upsert.
type VoteResult struct {
	VoteID       string   `json:"vote_id"`
	PreviousType VoteType `json:"previous_type,omitempty"`
	Type         VoteType `json:"type"`
	Changed      bool     `json:"changed"`
}
