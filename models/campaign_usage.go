package models

import (
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// CampaignUsage is the append-only record of a redemption token being
// consumed at a business.
type CampaignUsage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_campaign_usages_user_id" json:"user_id"`
	AssignmentID uint      `gorm:"not null;index:idx_campaign_usages_assignment_id" json:"assignment_id"`
	CampaignID   uint      `gorm:"not null;index:idx_campaign_usages_campaign_id" json:"campaign_id"`
	BusinessID   uint      `gorm:"not null;index:idx_campaign_usages_business_id" json:"business_id"`
	UsedAt       time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaign_usages_used_at" json:"used_at"`

	// Relations
	User       *User               `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Assignment *CampaignAssignment `gorm:"foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`
	Campaign   *Campaign           `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Business   *Business           `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
}

// TableName returns the table name for the model
func (CampaignUsage) TableName() string {
	return "campaign_usages"
}

// BeforeCreate is called before creating a new record
func (u *CampaignUsage) BeforeCreate(tx *gorm.DB) error {
	if u.UsedAt.IsZero() {
		u.UsedAt = utils.UTCNow()
	}
	return nil
}

// CampaignUsageFilter represents filter criteria for usage records
type CampaignUsageFilter struct {
	ID           *uint      `json:"id,omitempty"`
	UserID       *uint      `json:"user_id,omitempty"`
	AssignmentID *uint      `json:"assignment_id,omitempty"`
	CampaignID   *uint      `json:"campaign_id,omitempty"`
	BusinessID   *uint      `json:"business_id,omitempty"`
	UsedAfter    *time.Time `json:"used_after,omitempty"`
	UsedBefore   *time.Time `json:"used_before,omitempty"`
}
