// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/shopspring/decimal"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
}

// BusinessRepository defines operations for businesses
type BusinessRepository interface {
	Repository[models.Business, models.BusinessFilter]
	UpdateRating(ctx context.Context, businessID uint, rating float64) error
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ListActiveDynamic(ctx context.Context, at time.Time) ([]*models.Campaign, error)
	ListAssignedToUser(ctx context.Context, userID uint) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	SetActive(ctx context.Context, id uint, active bool) error
	ReplaceAllowedBusinesses(ctx context.Context, campaignID uint, businessIDs []uint) error
}

// CampaignAssignmentRepository defines operations for campaign assignments
type CampaignAssignmentRepository interface {
	Repository[models.CampaignAssignment, models.CampaignAssignmentFilter]
	ByUserAndCampaign(ctx context.Context, userID, campaignID uint) (*models.CampaignAssignment, error)
	ByQRToken(ctx context.Context, token string) (*models.CampaignAssignment, error)
	ListActiveForUser(ctx context.Context, userID uint, at time.Time) ([]*models.CampaignAssignment, error)
	// SaveIfAbsent inserts unless an assignment for the (user, campaign) pair
	// already exists. Returns true when a row was inserted. Losing a
	// concurrent race on the unique pair index reports false, not an error.
	SaveIfAbsent(ctx context.Context, assignment *models.CampaignAssignment) (bool, error)
	// LockByID reads the assignment under a row-level write lock. Must run
	// inside a transaction.
	LockByID(ctx context.Context, id uint) (*models.CampaignAssignment, error)
	// LockByQRToken reads the assignment holding the token under a row-level
	// write lock. Must run inside a transaction.
	LockByQRToken(ctx context.Context, token string) (*models.CampaignAssignment, error)
	UpdateToken(ctx context.Context, id uint, token string, expiresAt time.Time) error
	MarkUsed(ctx context.Context, id uint) error
}

// CampaignProgressRepository defines operations for per-assignment progress
type CampaignProgressRepository interface {
	Repository[models.CampaignProgress, models.CampaignProgressFilter]
	ByAssignmentID(ctx context.Context, assignmentID uint) (*models.CampaignProgress, error)
	// Increment applies server-side counter additions so concurrent events
	// never lose updates. A missing progress row is created on demand.
	Increment(ctx context.Context, assignmentID uint, delta ProgressDelta) error
}

// ProgressDelta carries the counter additions of a single domain event.
type ProgressDelta struct {
	CommentsMade      int
	ReservationsMade  int
	BusinessesVisited int
	TotalSpend        decimal.Decimal
}

// RuleEvaluationLogRepository defines operations for evaluation audit records
type RuleEvaluationLogRepository interface {
	Repository[models.RuleEvaluationLog, models.RuleEvaluationLogFilter]
	ListByUserAndCampaign(ctx context.Context, userID, campaignID uint, limit, offset int) ([]*models.RuleEvaluationLog, error)
}

// CampaignUsageRepository defines operations for redemption usage records
type CampaignUsageRepository interface {
	Repository[models.CampaignUsage, models.CampaignUsageFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.CampaignUsage, error)
	ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.CampaignUsage, error)
}

// ReservationRepository defines operations for reservations
type ReservationRepository interface {
	Repository[models.Reservation, models.ReservationFilter]
	// HasPriorReservation reports whether the user already reserved at the
	// business before the given reservation id. Used by the distinct-business
	// rule so the triggering reservation does not count itself.
	HasPriorReservation(ctx context.Context, userID, businessID, excludeReservationID uint) (bool, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReservationStatus) error
}

// CommentRepository defines operations for comments
type CommentRepository interface {
	Repository[models.Comment, models.CommentFilter]
	ByUserAndBusiness(ctx context.Context, userID, businessID uint) (*models.Comment, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	AverageRatingForBusiness(ctx context.Context, businessID uint) (*float64, error)
}

// ActivityRepository defines operations for the activity log
type ActivityRepository interface {
	Repository[models.Activity, models.ActivityFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Activity, error)
}
