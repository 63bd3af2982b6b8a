package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mekankolik/mekankolik-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignAssignmentRepositoryImpl implements the CampaignAssignmentRepository interface
type CampaignAssignmentRepositoryImpl struct {
	*BaseRepository[models.CampaignAssignment, models.CampaignAssignmentFilter]
}

// NewCampaignAssignmentRepository creates a new campaign assignment repository
func NewCampaignAssignmentRepository(db *gorm.DB) CampaignAssignmentRepository {
	return &CampaignAssignmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignAssignment, models.CampaignAssignmentFilter](db),
	}
}

// ByUserAndCampaign retrieves the assignment for a (user, campaign) pair
func (r *CampaignAssignmentRepositoryImpl) ByUserAndCampaign(ctx context.Context, userID, campaignID uint) (*models.CampaignAssignment, error) {
	filter := models.CampaignAssignmentFilter{
		UserID:     &userID,
		CampaignID: &campaignID,
	}
	assignments, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(assignments) == 0 {
		return nil, nil
	}

	return assignments[0], nil
}

// ByQRToken retrieves the assignment holding the given redemption token
func (r *CampaignAssignmentRepositoryImpl) ByQRToken(ctx context.Context, token string) (*models.CampaignAssignment, error) {
	db := r.getDB(ctx)

	var assignment models.CampaignAssignment
	err := db.Preload("Campaign").Where("qr_token = ?", token).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &assignment, nil
}

// ListActiveForUser retrieves the user's assignments whose campaign is active
// and within its validity window at the given instant
func (r *CampaignAssignmentRepositoryImpl) ListActiveForUser(ctx context.Context, userID uint, at time.Time) ([]*models.CampaignAssignment, error) {
	db := r.getDB(ctx)

	var assignments []*models.CampaignAssignment
	err := db.Joins("JOIN campaigns ON campaigns.id = campaign_assignments.campaign_id").
		Where("campaign_assignments.user_id = ?", userID).
		Where("campaigns.is_active = ?", true).
		Where("campaigns.start_date <= ? AND campaigns.end_date >= ?", at, at).
		Preload("Campaign").
		Order("campaign_assignments.id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

// SaveIfAbsent inserts the assignment unless the (user, campaign) pair already
// holds one. The unique pair index arbitrates concurrent sweeps, so losing the
// race reports false rather than a constraint error.
func (r *CampaignAssignmentRepositoryImpl) SaveIfAbsent(ctx context.Context, assignment *models.CampaignAssignment) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "campaign_id"}},
		DoNothing: true,
	}).Create(assignment)
	if result.Error != nil {
		err = result.Error
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// LockByID reads the assignment under FOR UPDATE. The caller must already be
// inside a transaction carried in the context.
func (r *CampaignAssignmentRepositoryImpl) LockByID(ctx context.Context, id uint) (*models.CampaignAssignment, error) {
	db := r.getDB(ctx)

	var assignment models.CampaignAssignment
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &assignment, nil
}

// LockByQRToken reads the assignment holding the token under FOR UPDATE. The
// caller must already be inside a transaction carried in the context.
func (r *CampaignAssignmentRepositoryImpl) LockByQRToken(ctx context.Context, token string) (*models.CampaignAssignment, error) {
	db := r.getDB(ctx)

	var assignment models.CampaignAssignment
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("qr_token = ?", token).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &assignment, nil
}

// UpdateToken stores a freshly minted redemption token on the assignment
func (r *CampaignAssignmentRepositoryImpl) UpdateToken(ctx context.Context, id uint, token string, expiresAt time.Time) error {
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

	err = db.Model(&models.CampaignAssignment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"qr_token":      token,
			"qr_expires_at": expiresAt,
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// MarkUsed flags the assignment as redeemed
func (r *CampaignAssignmentRepositoryImpl) MarkUsed(ctx context.Context, id uint) error {
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

	err = db.Model(&models.CampaignAssignment{}).
		Where("id = ?", id).
		Update("is_used", true).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves assignments based on filter criteria
func (r *CampaignAssignmentRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignAssignmentFilter, orderBy string, limit, offset int) ([]*models.CampaignAssignment, error) {
	db := r.getDB(ctx)

	var assignments []*models.CampaignAssignment
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

	err := query.Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

// Count returns the number of assignments matching the filter
func (r *CampaignAssignmentRepositoryImpl) Count(ctx context.Context, filter models.CampaignAssignmentFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var assignment models.CampaignAssignment
	query := r.applyFilter(db.Model(&assignment), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any assignment matching the filter exists
func (r *CampaignAssignmentRepositoryImpl) Exists(ctx context.Context, filter models.CampaignAssignmentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignAssignmentRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignAssignmentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.IsUsed != nil {
		db = db.Where("is_used = ?", *filter.IsUsed)
	}
	if filter.AssignedByRuleEngine != nil {
		db = db.Where("assigned_by_rule_engine = ?", *filter.AssignedByRuleEngine)
	}
	if filter.AssignedAfter != nil {
		db = db.Where("assigned_at >= ?", *filter.AssignedAfter)
	}
	if filter.AssignedBefore != nil {
		db = db.Where("assigned_at < ?", *filter.AssignedBefore)
	}

	return db
}
