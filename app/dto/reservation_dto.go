package dto

import "time"

// CreateReservationRequest represents the request to book a reservation
type CreateReservationRequest struct {
	UserID          uint      `json:"-"`
	BusinessID      uint      `json:"business_id" validate:"required"`
	ReservationTime time.Time `json:"reservation_time" validate:"required"`
	NumberOfPeople  int       `json:"number_of_people" validate:"required,min=1,max=20"`
	SpecialRequests *string   `json:"special_requests,omitempty" validate:"omitempty,max=500"`
}

// CreateReservationResponse represents the response to a booking
type CreateReservationResponse struct {
	Message       string    `json:"message"`
	ReservationID uint      `json:"reservation_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// CancelReservationRequest represents the request to cancel a reservation
type CancelReservationRequest struct {
	UserID        uint `json:"-"`
	ReservationID uint `json:"-"`
}

// CancelReservationResponse represents the response to a cancellation
type CancelReservationResponse struct {
	Message string `json:"message"`
}

// ReservationItem represents a reservation in list responses
type ReservationItem struct {
	ID              uint      `json:"id"`
	BusinessID      uint      `json:"business_id"`
	ReservationTime time.Time `json:"reservation_time"`
	NumberOfPeople  int       `json:"number_of_people"`
	Status          string    `json:"status"`
	CanCancel       bool      `json:"can_cancel"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListReservationsResponse represents the user's reservations
type ListReservationsResponse struct {
	Message string            `json:"message"`
	Items   []ReservationItem `json:"items"`
}
