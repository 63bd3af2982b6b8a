package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// User represents a platform user in the database. Admins are regular users
// with the is_admin flag set.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_email" json:"email"`
	Username     string     `gorm:"type:varchar(64);not null;uniqueIndex:uk_users_username" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin      *bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive     *bool      `gorm:"not null;default:true" json:"is_active"`
	Rating       *float64   `gorm:"type:numeric(3,2)" json:"rating,omitempty"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	// Relations
	Assignments  []CampaignAssignment `gorm:"foreignKey:UserID" json:"assignments,omitempty"`
	Reservations []Reservation        `gorm:"foreignKey:UserID" json:"reservations,omitempty"`
	Comments     []Comment            `gorm:"foreignKey:UserID" json:"comments,omitempty"`
}

// TableName returns the table name for the model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.IsAdmin == nil {
		u.IsAdmin = utils.ToPtr(false)
	}
	if u.IsActive == nil {
		u.IsActive = utils.ToPtr(true)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	u.UpdatedAt = &now
	return nil
}

// UserFilter represents filter criteria for users
type UserFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Username      *string    `json:"username,omitempty"`
	IsAdmin       *bool      `json:"is_admin,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
