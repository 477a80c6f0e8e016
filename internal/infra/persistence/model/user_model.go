// Package model holds the GORM persistence models mirroring the database schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. The verification and reset columns are
// nullable on purpose: NULL means no pending proof of that kind.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:USER"`
	Status       string    `gorm:"type:varchar(30);not null;default:PENDING_VERIFICATION"`

	EmailVerified                bool `gorm:"not null;default:false"`
	EmailVerificationToken       *string
	EmailVerificationTokenExpiry *time.Time
	EmailVerificationCode        *string `gorm:"type:varchar(6)"`
	EmailVerificationCodeExpiry  *time.Time

	PasswordResetToken       *string
	PasswordResetTokenExpiry *time.Time
	PasswordResetCode        *string `gorm:"type:varchar(6)"`
	PasswordResetCodeExpiry  *time.Time

	IsOnline  bool      `gorm:"not null;default:false"`
	LastSeen  time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []SessionModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
