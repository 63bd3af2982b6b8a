package repository

import (
	"context"

	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// ReservationRepositoryImpl implements the ReservationRepository interface
type ReservationRepositoryImpl struct {
	*BaseRepository[models.Reservation, models.ReservationFilter]
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &ReservationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Reservation, models.ReservationFilter](db),
	}
}

// HasPriorReservation reports whether the user already reserved at the
// business, excluding the reservation that raised the current event
func (r *ReservationRepositoryImpl) HasPriorReservation(ctx context.Context, userID, businessID, excludeReservationID uint) (bool, error) {
	db := r.getDB(ctx)

	var count int64
	query := db.Model(&models.Reservation{}).
		Where("user_id = ? AND business_id = ?", userID, businessID)
	if excludeReservationID > 0 {
		query = query.Where("id <> ?", excludeReservationID)
	}

	err := query.Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// CountByUser returns the user's total reservation count
func (r *ReservationRepositoryImpl) CountByUser(ctx context.Context, userID uint) (int64, error) {
	filter := models.ReservationFilter{UserID: &userID}
	return r.Count(ctx, filter)
}

// UpdateStatus transitions the reservation to the given status
func (r *ReservationRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.ReservationStatus) error {
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

	err = db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves reservations based on filter criteria
func (r *ReservationRepositoryImpl) ByFilter(ctx context.Context, filter models.ReservationFilter, orderBy string, limit, offset int) ([]*models.Reservation, error) {
	db := r.getDB(ctx)

	var reservations []*models.Reservation
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

	err := query.Find(&reservations).Error
	if err != nil {
		return nil, err
	}

	return reservations, nil
}

// Count returns the number of reservations matching the filter
func (r *ReservationRepositoryImpl) Count(ctx context.Context, filter models.ReservationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var reservation models.Reservation
	query := r.applyFilter(db.Model(&reservation), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any reservation matching the filter exists
func (r *ReservationRepositoryImpl) Exists(ctx context.Context, filter models.ReservationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ReservationRepositoryImpl) applyFilter(db *gorm.DB, filter models.ReservationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.BusinessID != nil {
		db = db.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.TimeAfter != nil {
		db = db.Where("reservation_time >= ?", *filter.TimeAfter)
	}
	if filter.TimeBefore != nil {
		db = db.Where("reservation_time < ?", *filter.TimeBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
