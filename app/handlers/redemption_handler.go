package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// RedemptionHandlerInterface defines the contract for redemption handlers
type RedemptionHandlerInterface interface {
	RequestToken(c fiber.Ctx) error
	ConsumeToken(c fiber.Ctx) error
}

// RedemptionHandler handles redemption token HTTP requests
type RedemptionHandler struct {
	redemptionFlow businessflow.RedemptionFlow
	validator      *validator.Validate
}

// NewRedemptionHandler creates a new redemption handler
func NewRedemptionHandler(redemptionFlow businessflow.RedemptionFlow) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionFlow: redemptionFlow,
		validator:      validator.New(),
	}
}

// RequestToken mints (or re-serves) a redemption token for the caller's assignment
func (h *RedemptionHandler) RequestToken(c fiber.Ctx) error {
	var req dto.RequestTokenRequest
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

	result, err := h.redemptionFlow.RequestToken(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Campaign is not active", "CAMPAIGN_INACTIVE", nil)
		}
		if businessflow.IsAssignmentNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign is not assigned to this user", "ASSIGNMENT_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAlreadyUsed(err) {
			return errorResponse(c, fiber.StatusConflict, "Campaign has already been used", "CAMPAIGN_ALREADY_USED", nil)
		}

		log.Println("Token request failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Token request failed", "TOKEN_REQUEST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Token issued successfully", fiber.Map{
		"message":    result.Message,
		"qr_token":   result.QRToken,
		"expires_at": result.ExpiresAt,
		"reissued":   result.Reissued,
	})
}

// ConsumeToken redeems a presented token at a business
func (h *RedemptionHandler) ConsumeToken(c fiber.Ctx) error {
	var req dto.ConsumeTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.redemptionFlow.ConsumeToken(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsTokenNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Token not found", "TOKEN_NOT_FOUND", nil)
		}
		if businessflow.IsTokenExpired(err) {
			return errorResponse(c, fiber.StatusGone, "Token has expired", "TOKEN_EXPIRED", nil)
		}
		if businessflow.IsCampaignAlreadyUsed(err) {
			return errorResponse(c, fiber.StatusConflict, "Campaign has already been used", "CAMPAIGN_ALREADY_USED", nil)
		}
		if businessflow.IsBusinessNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Business not found", "BUSINESS_NOT_FOUND", nil)
		}
		if businessflow.IsBusinessNotAllowed(err) {
			return errorResponse(c, fiber.StatusForbidden, "Business is not allowed for this campaign", "BUSINESS_NOT_ALLOWED", nil)
		}
		if businessflow.IsCampaignInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Campaign is not active", "CAMPAIGN_INACTIVE", nil)
		}

		log.Println("Token consumption failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Token consumption failed", "TOKEN_CONSUMPTION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Token consumed successfully", fiber.Map{
		"message":        result.Message,
		"campaign_title": result.CampaignTitle,
		"user_id":        result.UserID,
		"used_at":        result.UsedAt,
	})
}
