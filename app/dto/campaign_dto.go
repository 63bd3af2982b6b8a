package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateCampaignRequest represents the admin request to create a new campaign
type CreateCampaignRequest struct {
	AdminID              uint                   `json:"-"`
	Title                string                 `json:"title" validate:"required,min=1,max=255"`
	Description          *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate            time.Time              `json:"start_date" validate:"required"`
	EndDate              time.Time              `json:"end_date" validate:"required"`
	RuleType             string                 `json:"rule_type" validate:"required,oneof=static dynamic"`
	TriggerEvent         *string                `json:"trigger_event,omitempty" validate:"omitempty,oneof=none registration reservation purchase"`
	Criteria             map[string]json.Number `json:"criteria,omitempty"`
	IsSingleUse          *bool                  `json:"is_single_use,omitempty"`
	UsageDurationMinutes *int                   `json:"usage_duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	AllowedBusinessIDs   []uint                 `json:"allowed_business_ids,omitempty"`
}

// CreateCampaignResponse represents the response to create a new campaign
type CreateCampaignResponse struct {
	Message   string `json:"message"`
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	CreatedAt string `json:"created_at"`
}

// ListCampaignsRequest represents the request to list campaigns
type ListCampaignsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	RuleType *string `json:"rule_type,omitempty" validate:"omitempty,oneof=static dynamic"`
	Page     int     `json:"page" validate:"min=1"`
	PageSize int     `json:"page_size" validate:"min=1,max=100"`
}

// CampaignItem represents a campaign in list responses
type CampaignItem struct {
	ID                   uint                       `json:"id"`
	UUID                 string                     `json:"uuid"`
	Title                string                     `json:"title"`
	Description          *string                    `json:"description,omitempty"`
	StartDate            time.Time                  `json:"start_date"`
	EndDate              time.Time                  `json:"end_date"`
	IsActive             bool                       `json:"is_active"`
	RuleType             string                     `json:"rule_type"`
	TriggerEvent         string                     `json:"trigger_event"`
	Criteria             map[string]decimal.Decimal `json:"criteria,omitempty"`
	IsSingleUse          bool                       `json:"is_single_use"`
	UsageDurationMinutes int                        `json:"usage_duration_minutes"`
	AllowedBusinessIDs   []uint                     `json:"allowed_business_ids,omitempty"`
}

// ListCampaignsResponse represents the response to list campaigns
type ListCampaignsResponse struct {
	Message   string         `json:"message"`
	Items     []CampaignItem `json:"items"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	TotalPage int            `json:"total_page"`
}

// SetCampaignActiveRequest toggles a campaign's active flag
type SetCampaignActiveRequest struct {
	AdminID  uint   `json:"-"`
	UUID     string `json:"-"`
	IsActive bool   `json:"is_active"`
}

// SetCampaignActiveResponse represents the response to the toggle
type SetCampaignActiveResponse struct {
	Message string `json:"message"`
}

// MyCampaignItem represents an assigned campaign from the user's perspective
type MyCampaignItem struct {
	CampaignID   uint       `json:"campaign_id"`
	UUID         string     `json:"uuid"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	EndDate      time.Time  `json:"end_date"`
	IsSingleUse  bool       `json:"is_single_use"`
	AssignedAt   time.Time  `json:"assigned_at"`
	TokenState   string     `json:"token_state"`
	QRExpiresAt  *time.Time `json:"qr_expires_at,omitempty"`
	ProgressView *Progress  `json:"progress,omitempty"`
}

// Progress represents the counters of an assignment
type Progress struct {
	CommentsMade      int             `json:"comments_made"`
	ReservationsMade  int             `json:"reservations_made"`
	BusinessesVisited int             `json:"businesses_visited"`
	TotalSpend        decimal.Decimal `json:"total_spend"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// ListMyCampaignsResponse represents the user's assigned active campaigns
type ListMyCampaignsResponse struct {
	Message string           `json:"message"`
	Items   []MyCampaignItem `json:"items"`
}
