package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleType determines how a campaign gets assigned to users
type RuleType string

const (
	// RuleTypeStatic campaigns are assigned only by explicit admin action
	RuleTypeStatic RuleType = "static"
	// RuleTypeDynamic campaigns are auto-assigned by the rule sweep
	RuleTypeDynamic RuleType = "dynamic"
)

// String returns the string representation of the rule type
func (t RuleType) String() string {
	return string(t)
}

// Valid checks if the rule type is valid
func (t RuleType) Valid() bool {
	return t == RuleTypeStatic || t == RuleTypeDynamic
}

// Scan implements the sql.Scanner interface for RuleType
func (t *RuleType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = RuleType(v)
	case []byte:
		*t = RuleType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RuleType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RuleType
func (t RuleType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid RuleType: %s", t)
	}
	return string(t), nil
}

// TriggerEvent is the domain event that may trigger a rule sweep for a campaign
type TriggerEvent string

const (
	TriggerEventNone         TriggerEvent = "none"
	TriggerEventRegistration TriggerEvent = "registration"
	TriggerEventReservation  TriggerEvent = "reservation"
	TriggerEventPurchase     TriggerEvent = "purchase"
)

// String returns the string representation of the trigger event
func (e TriggerEvent) String() string {
	return string(e)
}

// Valid checks if the trigger event is valid
func (e TriggerEvent) Valid() bool {
	switch e {
	case TriggerEventNone, TriggerEventRegistration, TriggerEventReservation, TriggerEventPurchase:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for TriggerEvent
func (e *TriggerEvent) Scan(value any) error {
	if value == nil {
		*e = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*e = TriggerEvent(v)
	case []byte:
		*e = TriggerEvent(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TriggerEvent", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for TriggerEvent
func (e TriggerEvent) Value() (driver.Value, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid TriggerEvent: %s", e)
	}
	return string(e), nil
}

// CriterionKind enumerates the criteria the rule engine understands.
// Criteria maps are stored as jsonb but parsed into this closed set; keys
// outside it become CriterionKindIgnored and never participate in evaluation.
type CriterionKind string

const (
	CriterionMinCommentsAfterAssignment     CriterionKind = "min_comments_after_assignment"
	CriterionMinReservationsAfterAssignment CriterionKind = "min_reservations_after_assignment"
	CriterionMinBusinessesVisited           CriterionKind = "min_businesses_visited"
	CriterionMinSpendAfterAssignment        CriterionKind = "min_spend_after_assignment"
	CriterionMinRating                      CriterionKind = "min_rating"

	// Legacy whole-history criteria, kept for campaigns created before
	// per-assignment progress tracking existed.
	CriterionMinReservations CriterionKind = "min_reservations"
	CriterionMinComments     CriterionKind = "min_comments"

	// CriterionKindIgnored marks an unrecognized key. It round-trips through
	// storage untouched but is excluded from evaluation results.
	CriterionKindIgnored CriterionKind = "ignored"
)

// KnownCriterionKind resolves a raw criteria key to a criterion kind.
func KnownCriterionKind(key string) CriterionKind {
	switch CriterionKind(key) {
	case CriterionMinCommentsAfterAssignment,
		CriterionMinReservationsAfterAssignment,
		CriterionMinBusinessesVisited,
		CriterionMinSpendAfterAssignment,
		CriterionMinRating,
		CriterionMinReservations,
		CriterionMinComments:
		return CriterionKind(key)
	default:
		return CriterionKindIgnored
	}
}

// Criterion is a single parsed campaign criterion with a typed threshold.
type Criterion struct {
	Kind      CriterionKind   `json:"kind"`
	Key       string          `json:"key"`
	Threshold decimal.Decimal `json:"threshold"`
}

// CriteriaSet is the parsed criteria map of a campaign. It round-trips the
// original loosely-typed JSON object (key -> numeric threshold) while exposing
// the criteria as tagged variants.
type CriteriaSet struct {
	Criteria []Criterion `json:"criteria"`
}

// ParseCriteriaSet parses a raw criteria map into a CriteriaSet. Negative
// thresholds on recognized criteria are rejected; unknown keys are kept as
// ignored variants.
func ParseCriteriaSet(raw map[string]json.Number) (CriteriaSet, error) {
	var set CriteriaSet
	for key, num := range raw {
		threshold, err := decimal.NewFromString(num.String())
		if err != nil {
			return CriteriaSet{}, fmt.Errorf("criterion %q has non-numeric threshold %q", key, num.String())
		}
		kind := KnownCriterionKind(key)
		if kind != CriterionKindIgnored && threshold.IsNegative() {
			return CriteriaSet{}, fmt.Errorf("criterion %q has negative threshold %s", key, threshold.String())
		}
		set.Criteria = append(set.Criteria, Criterion{
			Kind:      kind,
			Key:       key,
			Threshold: threshold,
		})
	}
	return set, nil
}

// Known returns the recognized criteria, excluding ignored variants.
func (s CriteriaSet) Known() []Criterion {
	known := make([]Criterion, 0, len(s.Criteria))
	for _, c := range s.Criteria {
		if c.Kind != CriterionKindIgnored {
			known = append(known, c)
		}
	}
	return known
}

// Get returns the criterion for the given kind, if present.
func (s CriteriaSet) Get(kind CriterionKind) (Criterion, bool) {
	for _, c := range s.Criteria {
		if c.Kind == kind {
			return c, true
		}
	}
	return Criterion{}, false
}

// IsEmpty reports whether the set carries no criteria at all.
func (s CriteriaSet) IsEmpty() bool {
	return len(s.Criteria) == 0
}

// Value implements the driver.Valuer interface for CriteriaSet. The set is
// persisted in the original flat form so existing rows stay readable.
func (s CriteriaSet) Value() (driver.Value, error) {
	flat := make(map[string]decimal.Decimal, len(s.Criteria))
	for _, c := range s.Criteria {
		flat[c.Key] = c.Threshold
	}
	return json.Marshal(flat)
}

// Scan implements the sql.Scanner interface for CriteriaSet
func (s *CriteriaSet) Scan(value any) error {
	if value == nil {
		*s = CriteriaSet{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CriteriaSet", value)
	}

	raw := make(map[string]json.Number)
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}

	parsed, err := ParseCriteriaSet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Campaign represents a promotional campaign in the database
type Campaign struct {
	ID                   uint         `gorm:"primaryKey" json:"id"`
	UUID                 uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Title                string       `gorm:"type:varchar(255);not null" json:"title"`
	Description          *string      `gorm:"type:text" json:"description,omitempty"`
	StartDate            time.Time    `gorm:"not null;index:idx_campaigns_start_date" json:"start_date"`
	EndDate              time.Time    `gorm:"not null;index:idx_campaigns_end_date" json:"end_date"`
	IsActive             *bool        `gorm:"not null;default:true;index:idx_campaigns_is_active" json:"is_active"`
	RuleType             RuleType     `gorm:"type:varchar(16);not null;default:'static';index:idx_campaigns_rule_type" json:"rule_type"`
	TriggerEvent         TriggerEvent `gorm:"type:varchar(16);not null;default:'none'" json:"trigger_event"`
	Criteria             CriteriaSet  `gorm:"type:jsonb" json:"criteria"`
	IsSingleUse          *bool        `gorm:"not null;default:false" json:"is_single_use"`
	UsageDurationMinutes int          `gorm:"not null;default:10" json:"usage_duration_minutes"`
	RulesDescription     *string      `gorm:"type:text" json:"rules_description,omitempty"`
	CreatedAt            time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt            *time.Time   `json:"updated_at,omitempty"`

	// Relations
	AllowedBusinesses []CampaignBusiness   `gorm:"foreignKey:CampaignID" json:"allowed_businesses,omitempty"`
	Assignments       []CampaignAssignment `gorm:"foreignKey:CampaignID" json:"assignments,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.RuleType == "" {
		c.RuleType = RuleTypeStatic
	}
	if c.TriggerEvent == "" {
		c.TriggerEvent = TriggerEventNone
	}
	if c.UsageDurationMinutes <= 0 {
		c.UsageDurationMinutes = utils.DefaultUsageDurationMinutes
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsWithinWindow reports whether the campaign validity window contains the
// given instant.
func (c *Campaign) IsWithinWindow(at time.Time) bool {
	return !at.Before(c.StartDate) && !at.After(c.EndDate)
}

// IsCurrentlyActive reports whether the campaign is active and inside its
// validity window at the given instant.
func (c *Campaign) IsCurrentlyActive(at time.Time) bool {
	return utils.IsTrue(c.IsActive) && c.IsWithinWindow(at)
}

// IsBusinessAllowed reports whether a redemption may be used at the given
// business. An empty allowed set means unrestricted.
func (c *Campaign) IsBusinessAllowed(businessID uint) bool {
	if len(c.AllowedBusinesses) == 0 {
		return true
	}
	for _, ab := range c.AllowedBusinesses {
		if ab.BusinessID == businessID {
			return true
		}
	}
	return false
}

// UsageDuration returns the redemption token lifetime.
func (c *Campaign) UsageDuration() time.Duration {
	minutes := c.UsageDurationMinutes
	if minutes <= 0 {
		minutes = utils.DefaultUsageDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// CampaignBusiness links a campaign to a business where its redemption may be
// used. No rows for a campaign means the campaign is unrestricted.
type CampaignBusiness struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_campaign_businesses_pair" json:"campaign_id"`
	BusinessID uint      `gorm:"not null;uniqueIndex:uk_campaign_businesses_pair;index:idx_campaign_businesses_business_id" json:"business_id"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
}

// TableName returns the table name for the model
func (CampaignBusiness) TableName() string {
	return "campaign_businesses"
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint         `json:"id,omitempty"`
	UUID          *uuid.UUID    `json:"uuid,omitempty"`
	Title         *string       `json:"title,omitempty"`
	IsActive      *bool         `json:"is_active,omitempty"`
	RuleType      *RuleType     `json:"rule_type,omitempty"`
	TriggerEvent  *TriggerEvent `json:"trigger_event,omitempty"`
	IsSingleUse   *bool         `json:"is_single_use,omitempty"`
	ActiveAt      *time.Time    `json:"active_at,omitempty"`
	CreatedAfter  *time.Time    `json:"created_after,omitempty"`
	CreatedBefore *time.Time    `json:"created_before,omitempty"`
}
