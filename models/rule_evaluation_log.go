package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// RuleResult is the per-criterion outcome of a single rule evaluation,
// keyed by the raw criteria key.
type RuleResult map[string]bool

// Value implements the driver.Valuer interface for RuleResult
func (r RuleResult) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal(map[string]bool{})
	}
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for RuleResult
func (r *RuleResult) Scan(value any) error {
	if value == nil {
		*r = RuleResult{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleResult", value)
	}

	return json.Unmarshal(bytes, r)
}

// FailedKeys returns the criteria keys that evaluated to false, sorted.
func (r RuleResult) FailedKeys() []string {
	keys := make([]string, 0, len(r))
	for key, passed := range r {
		if !passed {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// RuleEvaluationLog is an append-only audit record of an evaluation outcome
// taken at a point in time. Rows are never mutated.
type RuleEvaluationLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index:idx_rule_evaluation_logs_user_id" json:"user_id"`
	CampaignID uint       `gorm:"not null;index:idx_rule_evaluation_logs_campaign_id" json:"campaign_id"`
	RuleResult RuleResult `gorm:"type:jsonb;not null" json:"rule_result"`
	// FailedCriteria denormalizes the failing keys so reports can filter
	// without unpacking the jsonb result.
	FailedCriteria pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"failed_criteria"`
	EvaluatedAt    time.Time      `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_rule_evaluation_logs_evaluated_at" json:"evaluated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (RuleEvaluationLog) TableName() string {
	return "rule_evaluation_logs"
}

// BeforeCreate is called before creating a new record
func (l *RuleEvaluationLog) BeforeCreate(tx *gorm.DB) error {
	if l.EvaluatedAt.IsZero() {
		l.EvaluatedAt = utils.UTCNow()
	}
	if l.RuleResult == nil {
		l.RuleResult = RuleResult{}
	}
	if l.FailedCriteria == nil {
		l.FailedCriteria = pq.StringArray{}
	}
	return nil
}

// RuleEvaluationLogFilter represents filter criteria for evaluation logs
type RuleEvaluationLogFilter struct {
	ID              *uint      `json:"id,omitempty"`
	UserID          *uint      `json:"user_id,omitempty"`
	CampaignID      *uint      `json:"campaign_id,omitempty"`
	EvaluatedAfter  *time.Time `json:"evaluated_after,omitempty"`
	EvaluatedBefore *time.Time `json:"evaluated_before,omitempty"`
}
