package dto

import "time"

// RequestTokenRequest represents the user request to mint a redemption token
type RequestTokenRequest struct {
	UserID       uint   `json:"-"`
	CampaignUUID string `json:"campaign_uuid" validate:"required,uuid4"`
}

// RequestTokenResponse carries the minted (or still-valid) redemption token
type RequestTokenResponse struct {
	Message   string    `json:"message"`
	QRToken   string    `json:"qr_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Reissued  bool      `json:"reissued"`
}

// ConsumeTokenRequest represents a business consuming a presented token
type ConsumeTokenRequest struct {
	QRToken    string `json:"qr_token" validate:"required"`
	BusinessID uint   `json:"business_id" validate:"required"`
}

// ConsumeTokenResponse represents the response to token consumption
type ConsumeTokenResponse struct {
	Message       string    `json:"message"`
	CampaignTitle string    `json:"campaign_title"`
	UserID        uint      `json:"user_id"`
	UsedAt        time.Time `json:"used_at"`
}

// UsageItem represents one redemption record
type UsageItem struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	CampaignID uint      `json:"campaign_id"`
	BusinessID uint      `json:"business_id"`
	UsedAt     time.Time `json:"used_at"`
}

// ListUsageRequest represents the admin request to list redemption records
type ListUsageRequest struct {
	CampaignUUID *string `json:"campaign_uuid,omitempty" validate:"omitempty,uuid4"`
	UserID       *uint   `json:"user_id,omitempty"`
	Page         int     `json:"page" validate:"min=1"`
	PageSize     int     `json:"page_size" validate:"min=1,max=100"`
}

// ListUsageResponse represents the response to the usage listing
type ListUsageResponse struct {
	Message  string      `json:"message"`
	Items    []UsageItem `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
