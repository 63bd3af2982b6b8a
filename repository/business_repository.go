package repository

import (
	"context"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// BusinessRepositoryImpl implements the BusinessRepository interface
type BusinessRepositoryImpl struct {
	*BaseRepository[models.Business, models.BusinessFilter]
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &BusinessRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Business, models.BusinessFilter](db),
	}
}

// UpdateRating stores the recomputed mean rating on the business
func (r *BusinessRepositoryImpl) UpdateRating(ctx context.Context, businessID uint, rating float64) error {
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

	err = db.Model(&models.Business{}).
		Where("id = ?", businessID).
		Updates(map[string]any{
			"rating":     rating,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves businesses based on filter criteria
func (r *BusinessRepositoryImpl) ByFilter(ctx context.Context, filter models.BusinessFilter, orderBy string, limit, offset int) ([]*models.Business, error) {
	db := r.getDB(ctx)

	var businesses []*models.Business
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

	err := query.Find(&businesses).Error
	if err != nil {
		return nil, err
	}

	return businesses, nil
}

// Count returns the number of businesses matching the filter
func (r *BusinessRepositoryImpl) Count(ctx context.Context, filter models.BusinessFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var business models.Business
	query := r.applyFilter(db.Model(&business), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any business matching the filter exists
func (r *BusinessRepositoryImpl) Exists(ctx context.Context, filter models.BusinessFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BusinessRepositoryImpl) applyFilter(db *gorm.DB, filter models.BusinessFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
