package repository

import (
	"context"

	"github.com/mekankolik/mekankolik-api/models"
	"gorm.io/gorm"
)

// RuleEvaluationLogRepositoryImpl implements the RuleEvaluationLogRepository interface
type RuleEvaluationLogRepositoryImpl struct {
	*BaseRepository[models.RuleEvaluationLog, models.RuleEvaluationLogFilter]
}

// NewRuleEvaluationLogRepository creates a new rule evaluation log repository
func NewRuleEvaluationLogRepository(db *gorm.DB) RuleEvaluationLogRepository {
	return &RuleEvaluationLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RuleEvaluationLog, models.RuleEvaluationLogFilter](db),
	}
}

// ListByUserAndCampaign retrieves evaluation records for a (user, campaign)
// pair, newest first
func (r *RuleEvaluationLogRepositoryImpl) ListByUserAndCampaign(ctx context.Context, userID, campaignID uint, limit, offset int) ([]*models.RuleEvaluationLog, error) {
	filter := models.RuleEvaluationLogFilter{
		UserID:     &userID,
		CampaignID: &campaignID,
	}
	return r.ByFilter(ctx, filter, "evaluated_at DESC", limit, offset)
}

// ByFilter retrieves evaluation records based on filter criteria
func (r *RuleEvaluationLogRepositoryImpl) ByFilter(ctx context.Context, filter models.RuleEvaluationLogFilter, orderBy string, limit, offset int) ([]*models.RuleEvaluationLog, error) {
	db := r.getDB(ctx)

	var logs []*models.RuleEvaluationLog
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

	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Count returns the number of evaluation records matching the filter
func (r *RuleEvaluationLogRepositoryImpl) Count(ctx context.Context, filter models.RuleEvaluationLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var log models.RuleEvaluationLog
	query := r.applyFilter(db.Model(&log), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any evaluation record matching the filter exists
func (r *RuleEvaluationLogRepositoryImpl) Exists(ctx context.Context, filter models.RuleEvaluationLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *RuleEvaluationLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.RuleEvaluationLogFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.EvaluatedAfter != nil {
		db = db.Where("evaluated_at >= ?", *filter.EvaluatedAfter)
	}
	if filter.EvaluatedBefore != nil {
		db = db.Where("evaluated_at < ?", *filter.EvaluatedBefore)
	}

	return db
}
