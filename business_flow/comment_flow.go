// Package businessflow contains the core business logic and use cases for comment workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// CommentFlow handles commenting on businesses
type CommentFlow interface {
	// CreateComment stores the user's single comment on a business, feeds
	// the campaign progress tracker, and refreshes the business rating.
	CreateComment(ctx context.Context, req *dto.CreateCommentRequest, metadata *ClientMetadata) (*dto.CreateCommentResponse, error)
}

// CommentFlowImpl implements the comment business flow
type CommentFlowImpl struct {
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	commentRepo  repository.CommentRepository
	progressFlow ProgressFlow
	db           *gorm.DB
}

// NewCommentFlow creates a new comment flow instance
func NewCommentFlow(
	userRepo repository.UserRepository,
	businessRepo repository.BusinessRepository,
	commentRepo repository.CommentRepository,
	progressFlow ProgressFlow,
	db *gorm.DB,
) CommentFlow {
	return &CommentFlowImpl{
		userRepo:     userRepo,
		businessRepo: businessRepo,
		commentRepo:  commentRepo,
		progressFlow: progressFlow,
		db:           db,
	}
}

// CreateComment stores a new comment and its side effects
func (s *CommentFlowImpl) CreateComment(ctx context.Context, req *dto.CreateCommentRequest, metadata *ClientMetadata) (*dto.CreateCommentResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, NewBusinessError("COMMENT_TEXT_REQUIRED", "Comment text is required", ErrCommentTextRequired)
	}
	if len(text) > utils.MaxCommentLength {
		return nil, NewBusinessError("COMMENT_TOO_LONG", "Comment exceeds the maximum length", ErrCommentTooLong)
	}
	if req.Rating < utils.MinCommentRating || req.Rating > utils.MaxCommentRating {
		return nil, NewBusinessError("COMMENT_RATING_INVALID", "Rating must be between 1.0 and 5.0", ErrCommentRatingInvalid)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, NewBusinessError("USER_NOT_FOUND", "User not found", err)
		}
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	business, err := getBusiness(ctx, s.businessRepo, req.BusinessID)
	if err != nil {
		if IsBusinessNotFound(err) {
			return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", err)
		}
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}

	existing, err := s.commentRepo.ByUserAndBusiness(ctx, user.ID, business.ID)
	if err != nil {
		return nil, NewBusinessError("COMMENT_LOOKUP_FAILED", "Failed to lookup existing comment", err)
	}
	if existing != nil {
		return nil, NewBusinessError("COMMENT_ALREADY_EXISTS", "User already commented on this business", ErrCommentAlreadyExists)
	}

	comment := &models.Comment{
		UserID:     user.ID,
		BusinessID: business.ID,
		Text:       text,
		Rating:     req.Rating,
		CreatedAt:  utils.UTCNow(),
	}

	var businessRating *float64

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if saveErr := s.commentRepo.Save(txCtx, comment); saveErr != nil {
			return fmt.Errorf("failed to save comment: %w", saveErr)
		}

		avg, avgErr := s.commentRepo.AverageRatingForBusiness(txCtx, business.ID)
		if avgErr != nil {
			return fmt.Errorf("failed to compute business rating: %w", avgErr)
		}
		if avg != nil {
			if updErr := s.businessRepo.UpdateRating(txCtx, business.ID, *avg); updErr != nil {
				return fmt.Errorf("failed to update business rating: %w", updErr)
			}
			businessRating = avg
		}

		return nil
	})
	if err != nil {
		return nil, NewBusinessError("COMMENT_CREATION_FAILED", "Comment creation failed", err)
	}

	// Campaign progress rides on the comment but never blocks it.
	event := ProgressEvent{
		UserID:     user.ID,
		Action:     models.ActionTypeComment,
		BusinessID: &business.ID,
	}
	if progErr := s.progressFlow.RecordEvent(ctx, event, metadata); progErr != nil {
		log.Printf("failed to record comment event for user %d: %v", user.ID, progErr)
	}

	return &dto.CreateCommentResponse{
		Message:        "Comment created",
		CommentID:      comment.ID,
		BusinessRating: businessRating,
		CreatedAt:      comment.CreatedAt,
	}, nil
}
