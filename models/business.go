package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// Business represents a listed business in the directory.
type Business struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_businesses_uuid" json:"uuid"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	Address     *string    `gorm:"type:text" json:"address,omitempty"`
	Phone       *string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Rating      *float64   `gorm:"type:numeric(3,2)" json:"rating,omitempty"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Relations
	Reservations []Reservation `gorm:"foreignKey:BusinessID" json:"reservations,omitempty"`
	Comments     []Comment     `gorm:"foreignKey:BusinessID" json:"comments,omitempty"`
}

// TableName returns the table name for the model
func (Business) TableName() string {
	return "businesses"
}

// BeforeCreate is called before creating a new record
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.IsActive == nil {
		b.IsActive = utils.ToPtr(true)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (b *Business) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	b.UpdatedAt = &now
	return nil
}

// BusinessFilter represents filter criteria for businesses
type BusinessFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Name          *string    `json:"name,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
