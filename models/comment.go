package models

import (
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// Comment is a user's review of a business. A user may comment on a business
// at most once.
type Comment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:uk_comments_user_business;index:idx_comments_user_id" json:"user_id"`
	BusinessID uint       `gorm:"not null;uniqueIndex:uk_comments_user_business;index:idx_comments_business_id" json:"business_id"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	Rating     float64    `gorm:"type:numeric(3,2);not null" json:"rating"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
}

// TableName returns the table name for the model
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate is called before creating a new record
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CommentFilter represents filter criteria for comments
type CommentFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UserID        *uint      `json:"user_id,omitempty"`
	BusinessID    *uint      `json:"business_id,omitempty"`
	MinRating     *float64   `json:"min_rating,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
