package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/app/middleware"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// AssignmentHandlerInterface defines the contract for assignment handlers
type AssignmentHandlerInterface interface {
	ManualAssign(c fiber.Ctx) error
	TriggerSweep(c fiber.Ctx) error
	PreviewEligibility(c fiber.Ctx) error
}

// AssignmentHandler handles campaign assignment HTTP requests
type AssignmentHandler struct {
	assignmentFlow businessflow.AssignmentFlow
	validator      *validator.Validate
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentFlow businessflow.AssignmentFlow) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentFlow: assignmentFlow,
		validator:      validator.New(),
	}
}

// ManualAssign handles admin assignment of a campaign to a user
func (h *AssignmentHandler) ManualAssign(c fiber.Ctx) error {
	var req dto.ManualAssignRequest
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

	result, err := h.assignmentFlow.ManualAssign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsDuplicateAssignment(err) {
			return errorResponse(c, fiber.StatusConflict, "User already holds this campaign", "DUPLICATE_ASSIGNMENT", nil)
		}

		log.Println("Manual assignment failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Assignment failed", "ASSIGNMENT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Campaign assigned successfully", fiber.Map{
		"message":       result.Message,
		"assignment_id": result.AssignmentID,
		"assigned_at":   result.AssignedAt,
	})
}

// TriggerSweep runs one rule-engine sweep inside this request. An optional
// user_id query parameter narrows the sweep to a single user.
func (h *AssignmentHandler) TriggerSweep(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	var report *dto.SweepReport
	var err error
	if userID := parsePositiveInt(c.Query("user_id"), 0); userID > 0 {
		report, err = h.assignmentFlow.SweepAndAssign(ctx, uint(userID))
	} else {
		report, err = h.assignmentFlow.SweepAllUsers(ctx)
	}
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		log.Println("Rule engine sweep failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Sweep failed", "SWEEP_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Sweep completed", report)
}

// PreviewEligibility runs the rule engine for one user and campaign without
// granting anything
func (h *AssignmentHandler) PreviewEligibility(c fiber.Ctx) error {
	campaignUUID := c.Query("campaign_uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "campaign_uuid query parameter is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	userID := parsePositiveInt(c.Query("user_id"), 0)
	if userID == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "user_id query parameter is required", "INVALID_USER_ID", nil)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.assignmentFlow.PreviewEligibility(ctx, uint(userID), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}

		log.Println("Eligibility preview failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Evaluation failed", "EVALUATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Evaluation completed", result)
}
