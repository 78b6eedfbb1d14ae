package users

import (
	"strings"
	"time"
)

// Role enumerates the account roles understood by the API.
type Role string

const (
	// RoleStudent is the default role assigned at registration.
	RoleStudent Role = "student"
	// RoleAdmin grants access to moderation and content-management endpoints.
	RoleAdmin Role = "admin"
)

// User is a registered MoringaDesk account.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null"`
	Name         string    `gorm:"column:name;size:120;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:120;not null"`
	Role         Role      `gorm:"column:role;size:20;not null;default:'student'"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// Public strips credential material for API responses.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the externally visible shape of an account.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetToken is a single-use credential for the password reset flow.
type PasswordResetToken struct {
	Token     string    `gorm:"column:token;primaryKey;size:190;not null"`
	UserID    string    `gorm:"column:user_id;size:190;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
