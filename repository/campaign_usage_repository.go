package repository

import (
	"context"

	"github.com/mekankolik/mekankolik-api/models"
	"gorm.io/gorm"
)

// CampaignUsageRepositoryImpl implements the CampaignUsageRepository interface
type CampaignUsageRepositoryImpl struct {
	*BaseRepository[models.CampaignUsage, models.CampaignUsageFilter]
}

// NewCampaignUsageRepository creates a new campaign usage repository
func NewCampaignUsageRepository(db *gorm.DB) CampaignUsageRepository {
	return &CampaignUsageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignUsage, models.CampaignUsageFilter](db),
	}
}

// ListByUser retrieves a user's redemption history, newest first
func (r *CampaignUsageRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.CampaignUsage, error) {
	filter := models.CampaignUsageFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "used_at DESC", limit, offset)
}

// ListByCampaign retrieves a campaign's redemption history, newest first
func (r *CampaignUsageRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.CampaignUsage, error) {
	filter := models.CampaignUsageFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "used_at DESC", limit, offset)
}

// ByFilter retrieves usage records based on filter criteria
func (r *CampaignUsageRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignUsageFilter, orderBy string, limit, offset int) ([]*models.CampaignUsage, error) {
	db := r.getDB(ctx)

	var usages []*models.CampaignUsage
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

	err := query.Find(&usages).Error
	if err != nil {
		return nil, err
	}

	return usages, nil
}

// Count returns the number of usage records matching the filter
func (r *CampaignUsageRepositoryImpl) Count(ctx context.Context, filter models.CampaignUsageFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var usage models.CampaignUsage
	query := r.applyFilter(db.Model(&usage), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any usage record matching the filter exists
func (r *CampaignUsageRepositoryImpl) Exists(ctx context.Context, filter models.CampaignUsageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignUsageRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignUsageFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.AssignmentID != nil {
		db = db.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.BusinessID != nil {
		db = db.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.UsedAfter != nil {
		db = db.Where("used_at >= ?", *filter.UsedAfter)
	}
	if filter.UsedBefore != nil {
		db = db.Where("used_at < ?", *filter.UsedBefore)
	}

	return db
}
