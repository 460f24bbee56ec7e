package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system. Identity and credential
// management live in a separate service; this API only needs the principal
// row for auth context and for annotating analytics with name/email.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`            // Never expose password in JSON
	PasswordSalt []byte         `gorm:"not null;type:bytea" json:"-"` // Salt for key derivation
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin

	// Relationships
	Activities []UserActivity `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
