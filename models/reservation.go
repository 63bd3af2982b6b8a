package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusRejected  ReservationStatus = "rejected"
)

// String returns the string representation of the status
func (s ReservationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed,
		ReservationStatusCancelled, ReservationStatusCompleted,
		ReservationStatusRejected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ReservationStatus
func (s *ReservationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ReservationStatus(v)
	case []byte:
		*s = ReservationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ReservationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ReservationStatus
func (s ReservationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ReservationStatus: %s", s)
	}
	return string(s), nil
}

// Reservation represents a table reservation at a business
type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index:idx_reservations_user_id;index:idx_reservations_user_business,priority:1" json:"user_id"`
	BusinessID      uint              `gorm:"not null;index:idx_reservations_business_id;index:idx_reservations_user_business,priority:2" json:"business_id"`
	ReservationTime time.Time         `gorm:"not null;index:idx_reservations_reservation_time" json:"reservation_time"`
	NumberOfPeople  int               `gorm:"not null" json:"number_of_people"`
	SpecialRequests *string           `gorm:"type:text" json:"special_requests,omitempty"`
	Status          ReservationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
}

// TableName returns the table name for the model
func (Reservation) TableName() string {
	return "reservations"
}

// BeforeCreate is called before creating a new record
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = ReservationStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *Reservation) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// IsCancellableStatus reports whether the status still allows cancellation.
func (r *Reservation) IsCancellableStatus() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}

// CanCancelAt reports whether the user may cancel at the given instant. The
// cutoff is exact: cancellation is allowed strictly more than one hour before
// reservation_time.
func (r *Reservation) CanCancelAt(at time.Time) bool {
	return r.IsCancellableStatus() && r.ReservationTime.Add(-utils.ReservationCancelCutoff).After(at)
}

// ReservationFilter represents filter criteria for reservations
type ReservationFilter struct {
	ID            *uint              `json:"id,omitempty"`
	UserID        *uint              `json:"user_id,omitempty"`
	BusinessID    *uint              `json:"business_id,omitempty"`
	Status        *ReservationStatus `json:"status,omitempty"`
	TimeAfter     *time.Time         `json:"time_after,omitempty"`
	TimeBefore    *time.Time         `json:"time_before,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}
