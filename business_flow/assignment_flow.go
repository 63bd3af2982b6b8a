// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/config"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AssignmentFlow handles granting campaigns to users
type AssignmentFlow interface {
	ManualAssign(ctx context.Context, req *dto.ManualAssignRequest, metadata *ClientMetadata) (*dto.ManualAssignResponse, error)
	// SweepAndAssign grants the user an assignment for every active dynamic
	// campaign they do not hold yet, each with a fresh progress row and an
	// empty evaluation log entry. Runs synchronously inside the triggering
	// request. Safe to run concurrently: the unique (user, campaign) index
	// arbitrates races.
	SweepAndAssign(ctx context.Context, userID uint) (*dto.SweepReport, error)
	// SweepAllUsers runs SweepAndAssign for every active user. Admin
	// on-demand operation.
	SweepAllUsers(ctx context.Context) (*dto.SweepReport, error)
	// PreviewEligibility runs the rule engine for one user and campaign
	// without writing anything. Admin-facing dry run.
	PreviewEligibility(ctx context.Context, userID uint, campaignUUID string) (*dto.EvaluationResponse, error)
}

// AssignmentFlowImpl implements the assignment business flow
type AssignmentFlowImpl struct {
	userRepo       repository.UserRepository
	campaignRepo   repository.CampaignRepository
	assignmentRepo repository.CampaignAssignmentRepository
	progressRepo   repository.CampaignProgressRepository
	ruleEngine     RuleEngineFlow
	cacheConfig    *config.CacheConfig
	rc             *redis.Client
	db             *gorm.DB
}

// NewAssignmentFlow creates a new assignment flow instance
func NewAssignmentFlow(
	userRepo repository.UserRepository,
	campaignRepo repository.CampaignRepository,
	assignmentRepo repository.CampaignAssignmentRepository,
	progressRepo repository.CampaignProgressRepository,
	ruleEngine RuleEngineFlow,
	db *gorm.DB,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) AssignmentFlow {
	return &AssignmentFlowImpl{
		userRepo:       userRepo,
		campaignRepo:   campaignRepo,
		assignmentRepo: assignmentRepo,
		progressRepo:   progressRepo,
		ruleEngine:     ruleEngine,
		cacheConfig:    cacheConfig,
		rc:             rc,
		db:             db,
	}
}

// ManualAssign grants a campaign to a user by admin decision
func (s *AssignmentFlowImpl) ManualAssign(ctx context.Context, req *dto.ManualAssignRequest, metadata *ClientMetadata) (*dto.ManualAssignResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	var assignment *models.CampaignAssignment

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		created, createErr := s.grantAssignment(txCtx, user.ID, campaign.ID, false)
		if createErr != nil {
			return createErr
		}
		assignment = created
		return nil
	})
	if err != nil {
		if IsDuplicateAssignment(err) {
			return nil, NewBusinessError("DUPLICATE_ASSIGNMENT", "User already holds this campaign", err)
		}
		return nil, NewBusinessError("ASSIGNMENT_CREATION_FAILED", "Assignment creation failed", err)
	}

	assignmentsCreatedTotal.WithLabelValues("manual").Inc()

	return &dto.ManualAssignResponse{
		Message:      "Campaign assigned",
		AssignmentID: assignment.ID,
		AssignedAt:   assignment.AssignedAt,
	}, nil
}

// PreviewEligibility reports the rule engine verdict without persisting it
func (s *AssignmentFlowImpl) PreviewEligibility(ctx context.Context, userID uint, campaignUUID string) (*dto.EvaluationResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	eligible, result, err := s.ruleEngine.Evaluate(ctx, userID, campaign.ID)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return nil, NewBusinessError("EVALUATION_FAILED", "Rule evaluation failed", err)
	}

	return &dto.EvaluationResponse{
		CampaignUUID: campaign.UUID.String(),
		UserID:       userID,
		Eligible:     eligible,
		Criteria:     result,
	}, nil
}

// SweepAndAssign runs the sweep over all active dynamic campaigns for one user
func (s *AssignmentFlowImpl) SweepAndAssign(ctx context.Context, userID uint) (*dto.SweepReport, error) {
	sweepRunsTotal.Inc()

	user, err := getUser(ctx, s.userRepo, userID)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	campaigns, err := s.listActiveDynamicCampaigns(ctx)
	if err != nil {
		return nil, NewBusinessError("SWEEP_CAMPAIGN_LIST_FAILED", "Failed to list active dynamic campaigns", err)
	}

	report := &dto.SweepReport{CampaignsEvaluated: len(campaigns), UsersEvaluated: 1}
	if err := s.sweepUser(ctx, user.ID, campaigns, report); err != nil {
		return nil, err
	}

	if report.AssignmentsCreated > 0 {
		assignmentsCreatedTotal.WithLabelValues("rule_engine").Add(float64(report.AssignmentsCreated))
	}

	return report, nil
}

// SweepAllUsers runs the sweep for every active user
func (s *AssignmentFlowImpl) SweepAllUsers(ctx context.Context) (*dto.SweepReport, error) {
	sweepRunsTotal.Inc()

	campaigns, err := s.listActiveDynamicCampaigns(ctx)
	if err != nil {
		return nil, NewBusinessError("SWEEP_CAMPAIGN_LIST_FAILED", "Failed to list active dynamic campaigns", err)
	}

	report := &dto.SweepReport{CampaignsEvaluated: len(campaigns)}
	if len(campaigns) == 0 {
		return report, nil
	}

	users, err := s.userRepo.ByFilter(ctx, models.UserFilter{IsActive: utils.ToPtr(true)}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SWEEP_USER_LIST_FAILED", "Failed to list users", err)
	}
	report.UsersEvaluated = len(users)

	for _, user := range users {
		if err := s.sweepUser(ctx, user.ID, campaigns, report); err != nil {
			return nil, err
		}
	}

	if report.AssignmentsCreated > 0 {
		assignmentsCreatedTotal.WithLabelValues("rule_engine").Add(float64(report.AssignmentsCreated))
	}

	return report, nil
}

// sweepUser grants the missing assignments for one user and updates the report
func (s *AssignmentFlowImpl) sweepUser(ctx context.Context, userID uint, campaigns []*models.Campaign, report *dto.SweepReport) error {
	for _, campaign := range campaigns {
		existing, err := s.assignmentRepo.ByUserAndCampaign(ctx, userID, campaign.ID)
		if err != nil {
			return NewBusinessError("SWEEP_ASSIGNMENT_LOOKUP_FAILED", "Failed to lookup assignment", err)
		}
		if existing != nil {
			continue
		}

		created := false
		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			_, grantErr := s.grantAssignment(txCtx, userID, campaign.ID, true)
			if grantErr != nil && !IsDuplicateAssignment(grantErr) {
				return grantErr
			}
			created = grantErr == nil
			return nil
		})
		if err != nil {
			return NewBusinessError("SWEEP_ASSIGNMENT_FAILED", "Assignment creation failed during sweep", err)
		}
		if !created {
			continue
		}
		report.AssignmentsCreated++

		// Fresh assignments start with an empty evaluation record. The
		// audit write is best-effort; a failure never blocks the sweep.
		if logErr := s.ruleEngine.RecordEvaluation(ctx, userID, campaign.ID, models.RuleResult{}); logErr != nil {
			log.Printf("failed to record rule evaluation for user %d campaign %d: %v", userID, campaign.ID, logErr)
		} else {
			report.EvaluationsRecorded++
		}
	}

	return nil
}

// grantAssignment inserts the assignment and its fresh progress row. Must run
// inside a transaction so a progress insert failure rolls back the assignment.
func (s *AssignmentFlowImpl) grantAssignment(ctx context.Context, userID, campaignID uint, byRuleEngine bool) (*models.CampaignAssignment, error) {
	assignment := &models.CampaignAssignment{
		UserID:               userID,
		CampaignID:           campaignID,
		AssignedAt:           utils.UTCNow(),
		IsUsed:               utils.ToPtr(false),
		AssignedByRuleEngine: utils.ToPtr(byRuleEngine),
	}

	inserted, err := s.assignmentRepo.SaveIfAbsent(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}
	if !inserted {
		return nil, ErrDuplicateAssignment
	}

	progress := &models.CampaignProgress{
		AssignmentID: assignment.ID,
		UserID:       userID,
		CampaignID:   campaignID,
		LastUpdated:  utils.UTCNow(),
	}
	if err := s.progressRepo.Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to create progress row: %w", err)
	}

	return assignment, nil
}

// listActiveDynamicCampaigns serves the sweep's candidate set from redis when
// possible and falls back to the database
func (s *AssignmentFlowImpl) listActiveDynamicCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	now := utils.UTCNow()

	var cacheKey string
	if s.rc != nil && s.cacheConfig != nil {
		cacheKey = redisKey(*s.cacheConfig, utils.ActiveDynamicCampaignsCacheKey)
		if bs, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached []*models.Campaign
			if err := json.Unmarshal(bs, &cached); err == nil {
				// Windows may have closed since the snapshot was taken.
				fresh := make([]*models.Campaign, 0, len(cached))
				for _, c := range cached {
					if c.IsCurrentlyActive(now) {
						fresh = append(fresh, c)
					}
				}
				return fresh, nil
			}
		}
	}

	campaigns, err := s.campaignRepo.ListActiveDynamic(ctx, now)
	if err != nil {
		return nil, err
	}

	if s.rc != nil && cacheKey != "" {
		if bs, err := json.Marshal(campaigns); err == nil {
			_ = s.rc.Set(ctx, cacheKey, bs, utils.ActiveDynamicCampaignsCacheTTL).Err()
		}
	}

	return campaigns, nil
}
