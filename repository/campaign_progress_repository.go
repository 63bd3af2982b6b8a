package repository

import (
	"context"
	"errors"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignProgressRepositoryImpl implements the CampaignProgressRepository interface
type CampaignProgressRepositoryImpl struct {
	*BaseRepository[models.CampaignProgress, models.CampaignProgressFilter]
}

// NewCampaignProgressRepository creates a new campaign progress repository
func NewCampaignProgressRepository(db *gorm.DB) CampaignProgressRepository {
	return &CampaignProgressRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignProgress, models.CampaignProgressFilter](db),
	}
}

// ByAssignmentID retrieves the progress row of an assignment
func (r *CampaignProgressRepositoryImpl) ByAssignmentID(ctx context.Context, assignmentID uint) (*models.CampaignProgress, error) {
	db := r.getDB(ctx)

	var progress models.CampaignProgress
	err := db.Where("assignment_id = ?", assignmentID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &progress, nil
}

// Increment applies the delta with server-side additions so concurrent events
// against the same assignment never lose updates.
func (r *CampaignProgressRepositoryImpl) Increment(ctx context.Context, assignmentID uint, delta ProgressDelta) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"last_updated": utils.UTCNow(),
	}
	if delta.CommentsMade != 0 {
		updates["comments_made"] = gorm.Expr("comments_made + ?", delta.CommentsMade)
	}
	if delta.ReservationsMade != 0 {
		updates["reservations_made"] = gorm.Expr("reservations_made + ?", delta.ReservationsMade)
	}
	if delta.BusinessesVisited != 0 {
		updates["businesses_visited"] = gorm.Expr("businesses_visited + ?", delta.BusinessesVisited)
	}
	if !delta.TotalSpend.IsZero() {
		updates["total_spend"] = gorm.Expr("total_spend + ?", delta.TotalSpend)
	}

	result := db.Model(&models.CampaignProgress{}).
		Where("assignment_id = ?", assignmentID).
		Updates(updates)
	if result.Error != nil {
		err = result.Error
		return err
	}

	// The row normally exists from assignment time. If it is missing,
	// create it with the delta already applied; a concurrent creator wins
	// the unique index and we fall back to the update.
	if result.RowsAffected == 0 {
		var assignment models.CampaignAssignment
		err = db.Where("id = ?", assignmentID).First(&assignment).Error
		if err != nil {
			return err
		}

		fresh := models.CampaignProgress{
			AssignmentID:      assignmentID,
			UserID:            assignment.UserID,
			CampaignID:        assignment.CampaignID,
			CommentsMade:      delta.CommentsMade,
			ReservationsMade:  delta.ReservationsMade,
			BusinessesVisited: delta.BusinessesVisited,
			TotalSpend:        delta.TotalSpend,
			LastUpdated:       utils.UTCNow(),
		}
		created := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}},
			DoNothing: true,
		}).Create(&fresh)
		if created.Error != nil {
			err = created.Error
			return err
		}
		if created.RowsAffected == 0 {
			err = db.Model(&models.CampaignProgress{}).
				Where("assignment_id = ?", assignmentID).
				Updates(updates).Error
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// ByFilter retrieves progress rows based on filter criteria
func (r *CampaignProgressRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignProgressFilter, orderBy string, limit, offset int) ([]*models.CampaignProgress, error) {
	db := r.getDB(ctx)

	var rows []*models.CampaignProgress
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of progress rows matching the filter
func (r *CampaignProgressRepositoryImpl) Count(ctx context.Context, filter models.CampaignProgressFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var progress models.CampaignProgress
	query := r.applyFilter(db.Model(&progress), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any progress row matching the filter exists
func (r *CampaignProgressRepositoryImpl) Exists(ctx context.Context, filter models.CampaignProgressFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignProgressRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignProgressFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.AssignmentID != nil {
		db = db.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.UserID != nil || filter.CampaignID != nil {
		db = db.Joins("JOIN campaign_assignments ON campaign_assignments.id = campaign_progress.assignment_id")
		if filter.UserID != nil {
			db = db.Where("campaign_assignments.user_id = ?", *filter.UserID)
		}
		if filter.CampaignID != nil {
			db = db.Where("campaign_assignments.campaign_id = ?", *filter.CampaignID)
		}
	}

	return db
}
