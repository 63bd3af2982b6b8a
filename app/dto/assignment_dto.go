package dto

import "time"

// ManualAssignRequest represents the admin request to assign a campaign to a user
type ManualAssignRequest struct {
	AdminID      uint   `json:"-"`
	UserID       uint   `json:"user_id" validate:"required"`
	CampaignUUID string `json:"campaign_uuid" validate:"required,uuid4"`
}

// ManualAssignResponse represents the response to a manual assignment
type ManualAssignResponse struct {
	Message      string    `json:"message"`
	AssignmentID uint      `json:"assignment_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// SweepReport summarizes one rule-engine sweep over the active dynamic campaigns
type SweepReport struct {
	CampaignsEvaluated  int `json:"campaigns_evaluated"`
	UsersEvaluated      int `json:"users_evaluated"`
	AssignmentsCreated  int `json:"assignments_created"`
	EvaluationsRecorded int `json:"evaluations_recorded"`
}

// EvaluationResponse carries the per-criterion verdict of a rule engine dry run
type EvaluationResponse struct {
	CampaignUUID string          `json:"campaign_uuid"`
	UserID       uint            `json:"user_id"`
	Eligible     bool            `json:"eligible"`
	Criteria     map[string]bool `json:"criteria"`
}
