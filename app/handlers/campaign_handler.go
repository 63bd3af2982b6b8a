package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// CampaignHandlerInterface defines the contract for campaign catalog handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetActiveCampaign(c fiber.Ctx) error
	SetCampaignActive(c fiber.Ctx) error
	ListMyCampaigns(c fiber.Ctx) error
}

// CampaignHandler handles campaign catalog HTTP requests
type CampaignHandler struct {
	catalogFlow businessflow.CampaignCatalogFlow
	validator   *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(catalogFlow businessflow.CampaignCatalogFlow) *CampaignHandler {
	return &CampaignHandler{
		catalogFlow: catalogFlow,
		validator:   validator.New(),
	}
}

// CreateCampaign handles admin campaign creation
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.AdminID = adminID

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.catalogFlow.CreateCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidCriteriaValue(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Criteria values must be non-negative numbers", "INVALID_CRITERIA_VALUE", nil)
		}
		if errors.Is(err, businessflow.ErrAllowedBusinessUnknown) {
			return errorResponse(c, fiber.StatusBadRequest, "Allowed business does not exist", "ALLOWED_BUSINESS_UNKNOWN", nil)
		}

		var be *businessflow.BusinessError
		if errors.As(err, &be) && be.Code == "CAMPAIGN_VALIDATION_FAILED" {
			return errorResponse(c, fiber.StatusBadRequest, be.Error(), be.Code, nil)
		}

		log.Println("Campaign creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Campaign created successfully", fiber.Map{
		"message":    result.Message,
		"id":         result.ID,
		"uuid":       result.UUID,
		"created_at": result.CreatedAt,
	})
}

// ListCampaigns returns campaigns with filters and pagination
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	req := &dto.ListCampaignsRequest{
		Page:     parsePositiveInt(c.Query("page", "1"), 1),
		PageSize: parsePositiveInt(c.Query("page_size", "20"), 20),
	}
	if v := c.Query("is_active"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			req.IsActive = &parsed
		}
	}
	if v := c.Query("rule_type"); v != "" {
		req.RuleType = &v
	}

	if err := h.validator.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.catalogFlow.ListCampaigns(ctx, req)
	if err != nil {
		log.Println("List campaigns failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "LIST_CAMPAIGNS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"total":      result.Total,
		"page":       result.Page,
		"page_size":  result.PageSize,
		"total_page": result.TotalPage,
	})
}

// GetActiveCampaign returns a single campaign if it is currently active
func (h *CampaignHandler) GetActiveCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	ctx, cancel := requestContext()
	defer cancel()

	item, err := h.catalogFlow.GetActiveCampaign(ctx, campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignInactive(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign is not active", "CAMPAIGN_INACTIVE", nil)
		}

		log.Println("Get active campaign failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to get campaign", "GET_CAMPAIGN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign retrieved successfully", item)
}

// SetCampaignActive toggles a campaign's active flag
func (h *CampaignHandler) SetCampaignActive(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	var req dto.SetCampaignActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = campaignUUID

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.AdminID = adminID

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.catalogFlow.SetCampaignActive(ctx, &req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Set campaign active failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", "SET_CAMPAIGN_ACTIVE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign updated successfully", fiber.Map{
		"message": result.Message,
	})
}

// ListMyCampaigns returns the authenticated user's assigned active campaigns
func (h *CampaignHandler) ListMyCampaigns(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.catalogFlow.ListMyCampaigns(ctx, userID)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}

		log.Println("List my campaigns failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "LIST_MY_CAMPAIGNS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", fiber.Map{
		"message": result.Message,
		"items":   result.Items,
	})
}

func parsePositiveInt(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
