// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProgressEvent is one domain event the tracker folds into the user's
// per-assignment counters
type ProgressEvent struct {
	UserID     uint
	Action     models.ActionType
	BusinessID *uint
	Amount     *decimal.Decimal
	// ReservationID excludes the triggering reservation from the
	// prior-visit check so a first booking still counts as a new business.
	ReservationID uint
}

// ProgressFlow folds domain events into campaign progress counters
type ProgressFlow interface {
	// RecordEvent updates the progress of every active assignment the user
	// holds, then sweeps the user's dynamic campaigns. All counter updates
	// of one event share a single transaction.
	RecordEvent(ctx context.Context, event ProgressEvent, metadata *ClientMetadata) error
}

// ProgressFlowImpl implements the progress tracking business flow
type ProgressFlowImpl struct {
	userRepo        repository.UserRepository
	assignmentRepo  repository.CampaignAssignmentRepository
	progressRepo    repository.CampaignProgressRepository
	reservationRepo repository.ReservationRepository
	activityRepo    repository.ActivityRepository
	assignmentFlow  AssignmentFlow
	db              *gorm.DB
}

// NewProgressFlow creates a new progress flow instance
func NewProgressFlow(
	userRepo repository.UserRepository,
	assignmentRepo repository.CampaignAssignmentRepository,
	progressRepo repository.CampaignProgressRepository,
	reservationRepo repository.ReservationRepository,
	activityRepo repository.ActivityRepository,
	assignmentFlow AssignmentFlow,
	db *gorm.DB,
) ProgressFlow {
	return &ProgressFlowImpl{
		userRepo:        userRepo,
		assignmentRepo:  assignmentRepo,
		progressRepo:    progressRepo,
		reservationRepo: reservationRepo,
		activityRepo:    activityRepo,
		assignmentFlow:  assignmentFlow,
		db:              db,
	}
}

// RecordEvent folds one domain event into every active assignment of the user
func (s *ProgressFlowImpl) RecordEvent(ctx context.Context, event ProgressEvent, metadata *ClientMetadata) error {
	if !event.Action.Valid() {
		return NewBusinessError("UNKNOWN_ACTION_TYPE", "Action type is not recognized", ErrUnknownActionType)
	}
	if event.Action == models.ActionTypePurchase {
		if event.Amount == nil {
			return NewBusinessError("AMOUNT_REQUIRED", "Purchase amount is required", ErrAmountRequired)
		}
		if event.Amount.IsNegative() {
			return NewBusinessError("AMOUNT_NEGATIVE", "Purchase amount must not be negative", ErrAmountNegative)
		}
	}
	if event.BusinessID == nil {
		return NewBusinessError("BUSINESS_REQUIRED", "Business is required for this action", ErrBusinessRequired)
	}

	user, err := getUser(ctx, s.userRepo, event.UserID)
	if err != nil {
		if IsUserNotFound(err) {
			return NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	delta, err := s.buildDelta(ctx, event)
	if err != nil {
		return NewBusinessError("PROGRESS_DELTA_FAILED", "Failed to derive progress delta", err)
	}

	now := utils.UTCNow()

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		assignments, listErr := s.assignmentRepo.ListActiveForUser(txCtx, user.ID, now)
		if listErr != nil {
			return fmt.Errorf("failed to list active assignments: %w", listErr)
		}

		for _, assignment := range assignments {
			if utils.IsTrue(assignment.IsUsed) {
				continue
			}
			if incErr := s.progressRepo.Increment(txCtx, assignment.ID, delta); incErr != nil {
				return fmt.Errorf("failed to increment progress for assignment %d: %w", assignment.ID, incErr)
			}
		}

		return nil
	})
	if err != nil {
		return NewBusinessError("PROGRESS_UPDATE_FAILED", "Progress update failed", err)
	}

	// The event also sweeps the user's dynamic campaigns, synchronously
	// within this request. The sweep runs after the increments, so fresh
	// assignments start at zero and the triggering event does not count
	// toward them.
	if _, sweepErr := s.assignmentFlow.SweepAndAssign(ctx, user.ID); sweepErr != nil {
		log.Printf("failed to sweep campaigns for user %d: %v", user.ID, sweepErr)
	}

	// The activity record is an audit trail, not part of the counters; its
	// failure must not undo them.
	activity := &models.Activity{
		UserID:     event.UserID,
		BusinessID: *event.BusinessID,
		ActionType: event.Action,
		CreatedAt:  now,
	}
	if err := s.activityRepo.Save(ctx, activity); err != nil {
		log.Printf("failed to record activity for user %d action %s: %v", event.UserID, event.Action, err)
	}

	return nil
}

// buildDelta maps the event onto counter additions. Only a reservation at a
// business the user never reserved before advances businesses_visited.
func (s *ProgressFlowImpl) buildDelta(ctx context.Context, event ProgressEvent) (repository.ProgressDelta, error) {
	var delta repository.ProgressDelta

	switch event.Action {
	case models.ActionTypeComment:
		delta.CommentsMade = 1
	case models.ActionTypeReservation:
		delta.ReservationsMade = 1
		visited, err := s.reservationRepo.HasPriorReservation(ctx, event.UserID, *event.BusinessID, event.ReservationID)
		if err != nil {
			return delta, err
		}
		if !visited {
			delta.BusinessesVisited = 1
		}
	case models.ActionTypePurchase:
		delta.TotalSpend = *event.Amount
	}

	return delta, nil
}
