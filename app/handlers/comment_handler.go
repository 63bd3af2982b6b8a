package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// CommentHandlerInterface defines the contract for comment handlers
type CommentHandlerInterface interface {
	CreateComment(c fiber.Ctx) error
}

// CommentHandler handles comment HTTP requests
type CommentHandler struct {
	commentFlow businessflow.CommentFlow
	validator   *validator.Validate
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentFlow businessflow.CommentFlow) *CommentHandler {
	return &CommentHandler{
		commentFlow: commentFlow,
		validator:   validator.New(),
	}
}

// CreateComment posts a comment and rating for a business
func (h *CommentHandler) CreateComment(c fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.commentFlow.CreateComment(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Business not found", "BUSINESS_NOT_FOUND", nil)
		}
		if businessflow.IsCommentAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "User already commented on this business", "COMMENT_ALREADY_EXISTS", nil)
		}
		if businessflow.IsCommentRatingInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Rating must be between 1.0 and 5.0", "COMMENT_RATING_INVALID", nil)
		}
		if errors.Is(err, businessflow.ErrCommentTooLong) {
			return errorResponse(c, fiber.StatusBadRequest, "Comment exceeds the maximum length", "COMMENT_TOO_LONG", nil)
		}
		if errors.Is(err, businessflow.ErrCommentTextRequired) {
			return errorResponse(c, fiber.StatusBadRequest, "Comment text is required", "COMMENT_TEXT_REQUIRED", nil)
		}

		log.Println("Comment creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Comment creation failed", "COMMENT_CREATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Comment created successfully", fiber.Map{
		"message":         result.Message,
		"comment_id":      result.CommentID,
		"business_rating": result.BusinessRating,
		"created_at":      result.CreatedAt,
	})
}
