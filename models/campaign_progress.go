package models

import (
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignProgress tracks a user's activity since assignment. Exactly one row
// exists per assignment; it is created in the same transaction as the
// assignment. Counters only ever grow, and businesses_visited counts distinct
// businesses only.
type CampaignProgress struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	AssignmentID      uint            `gorm:"not null;uniqueIndex:uk_campaign_progress_assignment_id" json:"assignment_id"`
	UserID            uint            `gorm:"not null;index:idx_campaign_progress_user_id" json:"user_id"`
	CampaignID        uint            `gorm:"not null;index:idx_campaign_progress_campaign_id" json:"campaign_id"`
	CommentsMade      int             `gorm:"not null;default:0" json:"comments_made"`
	ReservationsMade  int             `gorm:"not null;default:0" json:"reservations_made"`
	BusinessesVisited int             `gorm:"not null;default:0" json:"businesses_visited"`
	TotalSpend        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_spend"`
	LastUpdated       time.Time       `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"last_updated"`

	// Relations
	Assignment *CampaignAssignment `gorm:"foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`
}

// TableName returns the table name for the model
func (CampaignProgress) TableName() string {
	return "campaign_progress"
}

// BeforeCreate is called before creating a new record
func (p *CampaignProgress) BeforeCreate(tx *gorm.DB) error {
	if p.LastUpdated.IsZero() {
		p.LastUpdated = utils.UTCNow()
	}
	return nil
}

// CampaignProgressFilter represents filter criteria for progress rows
type CampaignProgressFilter struct {
	ID           *uint `json:"id,omitempty"`
	AssignmentID *uint `json:"assignment_id,omitempty"`
	UserID       *uint `json:"user_id,omitempty"`
	CampaignID   *uint `json:"campaign_id,omitempty"`
}
