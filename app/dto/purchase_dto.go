package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordPurchaseRequest represents a purchase reported against the
// authenticated user. The user comes from the token, never the body.
type RecordPurchaseRequest struct {
	UserID     uint            `json:"-"`
	BusinessID uint            `json:"business_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
}

// RecordPurchaseResponse represents the response to a recorded purchase
type RecordPurchaseResponse struct {
	Message    string    `json:"message"`
	RecordedAt time.Time `json:"recorded_at"`
}
