package models

import (
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// TokenState is the redemption lifecycle state of an assignment
type TokenState string

const (
	// TokenStateNone means no redemption token has been minted yet
	TokenStateNone TokenState = "no_token"
	// TokenStateValid means a minted token has not expired yet
	TokenStateValid TokenState = "token_valid"
	// TokenStateExpired means the minted token expired without re-issuance
	TokenStateExpired TokenState = "token_expired"
	// TokenStateUsed is terminal: a single-use campaign has been consumed
	TokenStateUsed TokenState = "used"
)

// CampaignAssignment binds exactly one user to exactly one campaign. The
// (user_id, campaign_id) pair is unique; concurrent assigners race on that
// constraint and the loser resolves to the existing row.
type CampaignAssignment struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;uniqueIndex:uk_campaign_assignments_user_campaign;index:idx_campaign_assignments_user_id" json:"user_id"`
	CampaignID           uint       `gorm:"not null;uniqueIndex:uk_campaign_assignments_user_campaign;index:idx_campaign_assignments_campaign_id" json:"campaign_id"`
	AssignedAt           time.Time  `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"assigned_at"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	IsUsed               *bool      `gorm:"not null;default:false;index:idx_campaign_assignments_is_used" json:"is_used"`
	AssignedByRuleEngine *bool      `gorm:"not null;default:false" json:"assigned_by_rule_engine"`
	QRToken              *string    `gorm:"type:varchar(64);uniqueIndex:uk_campaign_assignments_qr_token" json:"qr_token,omitempty"`
	QRExpiresAt          *time.Time `json:"qr_expires_at,omitempty"`

	// Relations
	User     *User             `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Campaign *Campaign         `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Progress *CampaignProgress `gorm:"foreignKey:AssignmentID;references:ID" json:"progress,omitempty"`
}

// TableName returns the table name for the model
func (CampaignAssignment) TableName() string {
	return "campaign_assignments"
}

// BeforeCreate is called before creating a new record
func (a *CampaignAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.AssignedAt.IsZero() {
		a.AssignedAt = utils.UTCNow()
	}
	if a.IsUsed == nil {
		a.IsUsed = utils.ToPtr(false)
	}
	if a.AssignedByRuleEngine == nil {
		a.AssignedByRuleEngine = utils.ToPtr(false)
	}
	return nil
}

// TokenStateAt derives the redemption state at the given instant. singleUse is
// the owning campaign's single-use flag; a consumed single-use assignment is
// terminal regardless of token fields.
func (a *CampaignAssignment) TokenStateAt(at time.Time, singleUse bool) TokenState {
	if singleUse && utils.IsTrue(a.IsUsed) {
		return TokenStateUsed
	}
	if a.QRToken == nil || a.QRExpiresAt == nil {
		return TokenStateNone
	}
	if at.After(*a.QRExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateValid
}

// HasValidToken reports whether the current token may still be presented.
func (a *CampaignAssignment) HasValidToken(at time.Time) bool {
	return a.QRToken != nil && a.QRExpiresAt != nil && !at.After(*a.QRExpiresAt)
}

// CampaignAssignmentFilter represents filter criteria for assignments
type CampaignAssignmentFilter struct {
	ID                   *uint      `json:"id,omitempty"`
	UserID               *uint      `json:"user_id,omitempty"`
	CampaignID           *uint      `json:"campaign_id,omitempty"`
	IsUsed               *bool      `json:"is_used,omitempty"`
	AssignedByRuleEngine *bool      `json:"assigned_by_rule_engine,omitempty"`
	AssignedAfter        *time.Time `json:"assigned_after,omitempty"`
	AssignedBefore       *time.Time `json:"assigned_before,omitempty"`
}
