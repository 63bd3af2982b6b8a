package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mekankolik/mekankolik-api/app/dto"
	businessflow "github.com/mekankolik/mekankolik-api/business_flow"
)

// AdminReportHandlerInterface defines the contract for admin reporting handlers
type AdminReportHandlerInterface interface {
	ListUsage(c fiber.Ctx) error
	DownloadUsageExcel(c fiber.Ctx) error
}

// AdminReportHandler handles admin usage reporting HTTP requests
type AdminReportHandler struct {
	reportFlow businessflow.AdminReportFlow
	validator  *validator.Validate
}

// NewAdminReportHandler creates a new admin report handler
func NewAdminReportHandler(reportFlow businessflow.AdminReportFlow) *AdminReportHandler {
	return &AdminReportHandler{
		reportFlow: reportFlow,
		validator:  validator.New(),
	}
}

// ListUsage returns redemption records with filters and pagination
func (h *AdminReportHandler) ListUsage(c fiber.Ctx) error {
	req, err := h.parseUsageRequest(c)
	if err != nil {
		return validationErrorResponse(c, err)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := h.reportFlow.ListUsage(ctx, req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Usage listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list usage", "LIST_USAGE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Usage retrieved successfully", fiber.Map{
		"message":   result.Message,
		"items":     result.Items,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// DownloadUsageExcel streams the usage report as an xlsx attachment
func (h *AdminReportHandler) DownloadUsageExcel(c fiber.Ctx) error {
	req, err := h.parseUsageRequest(c)
	if err != nil {
		return validationErrorResponse(c, err)
	}

	ctx, cancel := requestContext()
	defer cancel()

	filename, content, err := h.reportFlow.DownloadUsageExcel(ctx, req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Usage export failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export usage", "EXPORT_USAGE_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(content)
}

func (h *AdminReportHandler) parseUsageRequest(c fiber.Ctx) (*dto.ListUsageRequest, error) {
	req := &dto.ListUsageRequest{
		Page:     parsePositiveInt(c.Query("page", "1"), 1),
		PageSize: parsePositiveInt(c.Query("page_size", "50"), 50),
	}
	if v := c.Query("campaign_uuid"); v != "" {
		req.CampaignUUID = &v
	}
	if v := c.Query("user_id"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 32); err == nil {
			userID := uint(parsed)
			req.UserID = &userID
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}
	return req, nil
}
