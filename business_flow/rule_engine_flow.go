// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleEngineFlow evaluates campaign criteria against a user's behavior
type RuleEngineFlow interface {
	// Evaluate checks every known criterion of the campaign against the user
	// and returns the overall verdict plus the per-criterion breakdown. It
	// performs no writes.
	Evaluate(ctx context.Context, userID, campaignID uint) (bool, models.RuleResult, error)
	// RecordEvaluation persists the outcome of an evaluation. Failures here
	// must not abort the caller's work.
	RecordEvaluation(ctx context.Context, userID, campaignID uint, result models.RuleResult) error
}

// RuleEngineFlowImpl implements the rule engine business flow
type RuleEngineFlowImpl struct {
	userRepo        repository.UserRepository
	campaignRepo    repository.CampaignRepository
	assignmentRepo  repository.CampaignAssignmentRepository
	progressRepo    repository.CampaignProgressRepository
	commentRepo     repository.CommentRepository
	reservationRepo repository.ReservationRepository
	evalLogRepo     repository.RuleEvaluationLogRepository
	db              *gorm.DB
}

// NewRuleEngineFlow creates a new rule engine flow instance
func NewRuleEngineFlow(
	userRepo repository.UserRepository,
	campaignRepo repository.CampaignRepository,
	assignmentRepo repository.CampaignAssignmentRepository,
	progressRepo repository.CampaignProgressRepository,
	commentRepo repository.CommentRepository,
	reservationRepo repository.ReservationRepository,
	evalLogRepo repository.RuleEvaluationLogRepository,
	db *gorm.DB,
) RuleEngineFlow {
	return &RuleEngineFlowImpl{
		userRepo:        userRepo,
		campaignRepo:    campaignRepo,
		assignmentRepo:  assignmentRepo,
		progressRepo:    progressRepo,
		commentRepo:     commentRepo,
		reservationRepo: reservationRepo,
		evalLogRepo:     evalLogRepo,
		db:              db,
	}
}

// userStats is the behavior snapshot a single evaluation runs against
type userStats struct {
	rating            *float64
	totalComments     int64
	totalReservations int64
	progress          *models.CampaignProgress
}

// Evaluate checks the campaign's criteria against the user's current behavior
func (s *RuleEngineFlowImpl) Evaluate(ctx context.Context, userID, campaignID uint) (bool, models.RuleResult, error) {
	campaign, err := getCampaign(ctx, s.campaignRepo, campaignID)
	if err != nil {
		return false, nil, err
	}

	user, err := getUser(ctx, s.userRepo, userID)
	if err != nil {
		return false, nil, err
	}

	stats, err := s.collectStats(ctx, user, campaign)
	if err != nil {
		return false, nil, fmt.Errorf("failed to collect user stats: %w", err)
	}

	result := make(models.RuleResult)
	eligible := true

	// Without an assignment (or its progress row) every criterion fails,
	// whole-history ones included.
	if stats.progress == nil {
		for _, criterion := range campaign.Criteria.Known() {
			result[criterion.Key] = false
			eligible = false
		}
		return eligible, result, nil
	}

	for _, criterion := range campaign.Criteria.Known() {
		passed := s.checkCriterion(criterion, stats)
		result[criterion.Key] = passed
		if !passed {
			eligible = false
		}
	}

	return eligible, result, nil
}

// RecordEvaluation appends an audit record for the evaluation outcome
func (s *RuleEngineFlowImpl) RecordEvaluation(ctx context.Context, userID, campaignID uint, result models.RuleResult) error {
	log := &models.RuleEvaluationLog{
		UserID:         userID,
		CampaignID:     campaignID,
		RuleResult:     result,
		FailedCriteria: pq.StringArray(result.FailedKeys()),
		EvaluatedAt:    utils.UTCNow(),
	}
	return s.evalLogRepo.Save(ctx, log)
}

func (s *RuleEngineFlowImpl) collectStats(ctx context.Context, user *models.User, campaign *models.Campaign) (*userStats, error) {
	stats := &userStats{rating: user.Rating}

	totalComments, err := s.commentRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	stats.totalComments = totalComments

	totalReservations, err := s.reservationRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	stats.totalReservations = totalReservations

	// Post-assignment counters exist only once the user holds an assignment.
	assignment, err := s.assignmentRepo.ByUserAndCampaign(ctx, user.ID, campaign.ID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		progress, err := s.progressRepo.ByAssignmentID(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}
		stats.progress = progress
	}

	return stats, nil
}

// checkCriterion assumes stats.progress is present; Evaluate short-circuits
// the no-assignment case before reaching it.
func (s *RuleEngineFlowImpl) checkCriterion(criterion models.Criterion, stats *userStats) bool {
	switch criterion.Kind {
	case models.CriterionMinCommentsAfterAssignment:
		return decimal.NewFromInt(int64(stats.progress.CommentsMade)).GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinReservationsAfterAssignment:
		return decimal.NewFromInt(int64(stats.progress.ReservationsMade)).GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinBusinessesVisited:
		return decimal.NewFromInt(int64(stats.progress.BusinessesVisited)).GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinSpendAfterAssignment:
		return stats.progress.TotalSpend.GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinRating:
		if stats.rating == nil {
			return false
		}
		return decimal.NewFromFloat(*stats.rating).GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinReservations:
		return decimal.NewFromInt(stats.totalReservations).GreaterThanOrEqual(criterion.Threshold)
	case models.CriterionMinComments:
		return decimal.NewFromInt(stats.totalComments).GreaterThanOrEqual(criterion.Threshold)
	default:
		// Unknown kinds never gate eligibility.
		return true
	}
}
