package faqs

import "time"

// FAQ is a curated question/answer pair maintained by admins.
type FAQ struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey;size:190;not null"`
	Question  string    `json:"question" gorm:"column:question;size:255;not null"`
	Answer    string    `json:"answer" gorm:"column:answer;type:text;not null"`
	CreatedBy string    `json:"created_by" gorm:"column:created_by;size:190;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (FAQ) TableName() string {
	return "faqs"
}
