package questions

import "time"

// Question is a student problem posted for the community to solve.
type Question struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	UserID    string    `json:"user_id" gorm:"column:user_id;size:190;not null;index"`
	Title     string    `json:"title" gorm:"column:title;size:200;not null"`
	Body      string    `json:"body" gorm:"column:body;type:text;not null"`
	Category  string    `json:"category" gorm:"column:category;size:50;not null;default:'technical';index"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Question) TableName() string {
	return "questions"
}

// Tag is a reusable label attached to questions.
type Tag struct {
	ID   string `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Name string `json:"name" gorm:"column:name;size:60;not null;uniqueIndex"`
}

// TableName provides the explicit table binding for GORM.
func (Tag) TableName() string {
	return "tags"
}

// QuestionTag joins questions to tags.
type QuestionTag struct {
	QuestionID string `gorm:"column:question_id;primaryKey;size:190;not null"`
	TagID      string `gorm:"column:tag_id;primaryKey;size:190;not null"`
}

// TableName provides the explicit table binding for GORM.
func (QuestionTag) TableName() string {
	return "question_tags"
}

// RelatedQuestion links two questions as covering similar problems.
type RelatedQuestion struct {
	QuestionID        string `gorm:"column:question_id;primaryKey;size:190;not null"`
	RelatedQuestionID string `gorm:"column:related_question_id;primaryKey;size:190;not null"`
}

// TableName provides the explicit table binding for GORM.
func (RelatedQuestion) TableName() string {
	return "related_questions"
}

// Follow is a (user, question) subscription used to compute notification
// fan-out targets.
type Follow struct {
	UserID     string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	QuestionID string    `gorm:"column:question_id;primaryKey;size:190;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Follow) TableName() string {
	return "follows"
}

// View is a question with its tags attached.
type View struct {
	Question
	Tags []string `json:"tags"`
}
