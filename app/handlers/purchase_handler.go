package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/utils"
)

// PurchaseHandlerInterface defines the contract for purchase handlers
type PurchaseHandlerInterface interface {
	RecordPurchase(c fiber.Ctx) error
}

// PurchaseHandler handles purchase reporting HTTP requests
type PurchaseHandler struct {
	progressFlow businessflow.ProgressFlow
	validator    *validator.Validate
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(progressFlow businessflow.ProgressFlow) *PurchaseHandler {
	return &PurchaseHandler{
		progressFlow: progressFlow,
		validator:    validator.New(),
	}
}

// RecordPurchase feeds a purchase event into the progress tracker
func (h *PurchaseHandler) RecordPurchase(c fiber.Ctx) error {
	var req dto.RecordPurchaseRequest
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

	event := businessflow.ProgressEvent{
		UserID:     req.UserID,
		Action:     models.ActionTypePurchase,
		BusinessID: &req.BusinessID,
		Amount:     &req.Amount,
	}

	if err := h.progressFlow.RecordEvent(ctx, event, clientMetadata(c)); err != nil {
		if businessflow.IsUserNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrAmountRequired) || errors.Is(err, businessflow.ErrAmountNegative) {
			return errorResponse(c, fiber.StatusBadRequest, "Purchase amount must be a non-negative number", "INVALID_AMOUNT", nil)
		}
		if businessflow.IsUnknownActionType(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Action type is not recognized", "UNKNOWN_ACTION_TYPE", nil)
		}

		log.Println("Purchase recording failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Purchase recording failed", "PURCHASE_RECORDING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Purchase recorded successfully", dto.RecordPurchaseResponse{
		Message:    "Purchase recorded",
		RecordedAt: utils.UTCNow(),
	})
}
