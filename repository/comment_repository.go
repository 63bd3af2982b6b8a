package repository

import (
	"context"
	"errors"

	"github.com/mekankolik/mekankolik-api/models"
	"gorm.io/gorm"
)

// CommentRepositoryImpl implements the CommentRepository interface
type CommentRepositoryImpl struct {
	*BaseRepository[models.Comment, models.CommentFilter]
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Comment, models.CommentFilter](db),
	}
}

// ByUserAndBusiness retrieves the user's comment on a business, if any
func (r *CommentRepositoryImpl) ByUserAndBusiness(ctx context.Context, userID, businessID uint) (*models.Comment, error) {
	db := r.getDB(ctx)

	var comment models.Comment
	err := db.Where("user_id = ? AND business_id = ?", userID, businessID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &comment, nil
}

// CountByUser returns the user's total comment count
func (r *CommentRepositoryImpl) CountByUser(ctx context.Context, userID uint) (int64, error) {
	filter := models.CommentFilter{UserID: &userID}
	return r.Count(ctx, filter)
}

// AverageRatingForBusiness computes the mean rating across a business's
// comments. Returns nil when the business has no comments yet.
func (r *CommentRepositoryImpl) AverageRatingForBusiness(ctx context.Context, businessID uint) (*float64, error) {
	db := r.getDB(ctx)

	var avg *float64
	err := db.Model(&models.Comment{}).
		Where("business_id = ?", businessID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}

	return avg, nil
}

// ByFilter retrieves comments based on filter criteria
func (r *CommentRepositoryImpl) ByFilter(ctx context.Context, filter models.CommentFilter, orderBy string, limit, offset int) ([]*models.Comment, error) {
	db := r.getDB(ctx)

	var comments []*models.Comment
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

	err := query.Find(&comments).Error
	if err != nil {
		return nil, err
	}

	return comments, nil
}

// Count returns the number of comments matching the filter
func (r *CommentRepositoryImpl) Count(ctx context.Context, filter models.CommentFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var comment models.Comment
	query := r.applyFilter(db.Model(&comment), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any comment matching the filter exists
func (r *CommentRepositoryImpl) Exists(ctx context.Context, filter models.CommentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CommentRepositoryImpl) applyFilter(db *gorm.DB, filter models.CommentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.BusinessID != nil {
		db = db.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.MinRating != nil {
		db = db.Where("rating >= ?", *filter.MinRating)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
