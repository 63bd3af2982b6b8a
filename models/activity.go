package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// ActionType is the closed set of domain events the progress tracker accepts.
// Constructing an event with anything else fails up front instead of silently
// doing nothing.
type ActionType string

const (
	ActionTypeComment     ActionType = "comment"
	ActionTypeReservation ActionType = "reservation"
	ActionTypePurchase    ActionType = "purchase"
)

// String returns the string representation of the action type
func (a ActionType) String() string {
	return string(a)
}

// Valid checks if the action type is valid
func (a ActionType) Valid() bool {
	switch a {
	case ActionTypeComment, ActionTypeReservation, ActionTypePurchase:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ActionType
func (a *ActionType) Scan(value any) error {
	if value == nil {
		*a = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*a = ActionType(v)
	case []byte:
		*a = ActionType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ActionType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ActionType
func (a ActionType) Value() (driver.Value, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid ActionType: %s", a)
	}
	return string(a), nil
}

// Activity is the append-only log of user actions against businesses.
type Activity struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index:idx_activities_user_id" json:"user_id"`
	BusinessID uint       `gorm:"not null;index:idx_activities_business_id" json:"business_id"`
	ActionType ActionType `gorm:"type:varchar(16);not null" json:"action_type"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_activities_created_at" json:"created_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
}

// TableName returns the table name for the model
func (Activity) TableName() string {
	return "activities"
}

// BeforeCreate is called before creating a new record
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ActivityFilter represents filter criteria for activities
type ActivityFilter struct {
	ID            *uint       `json:"id,omitempty"`
	UserID        *uint       `json:"user_id,omitempty"`
	BusinessID    *uint       `json:"business_id,omitempty"`
	ActionType    *ActionType `json:"action_type,omitempty"`
	CreatedAfter  *time.Time  `json:"created_after,omitempty"`
	CreatedBefore *time.Time  `json:"created_before,omitempty"`
}
