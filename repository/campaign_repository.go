package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByID retrieves a campaign by ID with its allowed-business set
func (r *CampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Preload("AllowedBusinesses").Last(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, raw string) (*models.Campaign, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}

	filter := models.CampaignFilter{UUID: &parsed}
	campaigns, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// ListActiveDynamic retrieves the active dynamic campaigns whose validity
// window contains the given instant. This is the candidate set of the rule
// sweep.
func (r *CampaignRepositoryImpl) ListActiveDynamic(ctx context.Context, at time.Time) ([]*models.Campaign, error) {
	ruleType := models.RuleTypeDynamic
	filter := models.CampaignFilter{
		RuleType: &ruleType,
		IsActive: utils.ToPtr(true),
		ActiveAt: &at,
	}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// ListAssignedToUser retrieves all campaigns the user holds an assignment for
func (r *CampaignRepositoryImpl) ListAssignedToUser(ctx context.Context, userID uint) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	err := db.Joins("JOIN campaign_assignments ON campaign_assignments.campaign_id = campaigns.id").
		Where("campaign_assignments.user_id = ?", userID).
		Preload("AllowedBusinesses").
		Order("campaigns.id ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Update updates a campaign
func (r *CampaignRepositoryImpl) Update(ctx context.Context, campaign models.Campaign) error {
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

	now := utils.UTCNow()
	campaign.UpdatedAt = &now

	err = db.Save(&campaign).Error
	if err != nil {
		return err
	}

	return nil
}

// SetActive toggles only the is_active flag of a campaign
func (r *CampaignRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
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

	err = db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ReplaceAllowedBusinesses rewrites the campaign's allowed-business set. An
// empty set means the campaign is unrestricted.
func (r *CampaignRepositoryImpl) ReplaceAllowedBusinesses(ctx context.Context, campaignID uint, businessIDs []uint) error {
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

	err = db.Where("campaign_id = ?", campaignID).Delete(&models.CampaignBusiness{}).Error
	if err != nil {
		return err
	}

	for _, businessID := range businessIDs {
		link := models.CampaignBusiness{
			CampaignID: campaignID,
			BusinessID: businessID,
		}
		if err = db.Create(&link).Error; err != nil {
			return err
		}
	}

	return nil
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("AllowedBusinesses")

	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var campaign models.Campaign
	query := r.applyFilter(db.Model(&campaign), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Title != nil {
		db = db.Where("title ILIKE ?", "%"+*filter.Title+"%")
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.RuleType != nil {
		db = db.Where("rule_type = ?", *filter.RuleType)
	}
	if filter.TriggerEvent != nil {
		db = db.Where("trigger_event = ?", *filter.TriggerEvent)
	}
	if filter.IsSingleUse != nil {
		db = db.Where("is_single_use = ?", *filter.IsSingleUse)
	}
	if filter.ActiveAt != nil {
		db = db.Where("start_date <= ? AND end_date >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
