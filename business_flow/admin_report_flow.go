// Package businessflow contains the core business logic and use cases for admin reporting
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/xuri/excelize/v2"
)

// AdminReportFlow handles redemption reporting for administrators
type AdminReportFlow interface {
	ListUsage(ctx context.Context, req *dto.ListUsageRequest) (*dto.ListUsageResponse, error)
	// DownloadUsageExcel exports the matching redemption records as an xlsx
	// workbook. Returns the suggested filename and the file bytes.
	DownloadUsageExcel(ctx context.Context, req *dto.ListUsageRequest) (string, []byte, error)
}

// AdminReportFlowImpl implements the admin reporting business flow
type AdminReportFlowImpl struct {
	usageRepo    repository.CampaignUsageRepository
	campaignRepo repository.CampaignRepository
}

// NewAdminReportFlow creates a new admin report flow instance
func NewAdminReportFlow(
	usageRepo repository.CampaignUsageRepository,
	campaignRepo repository.CampaignRepository,
) AdminReportFlow {
	return &AdminReportFlowImpl{
		usageRepo:    usageRepo,
		campaignRepo: campaignRepo,
	}
}

// ListUsage lists redemption records with pagination
func (s *AdminReportFlowImpl) ListUsage(ctx context.Context, req *dto.ListUsageRequest) (*dto.ListUsageResponse, error) {
	filter, err := s.buildFilter(ctx, req)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	total, err := s.usageRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("USAGE_LIST_FAILED", "Failed to count usage records", err)
	}

	usages, err := s.usageRepo.ByFilter(ctx, filter, "used_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("USAGE_LIST_FAILED", "Failed to list usage records", err)
	}

	items := make([]dto.UsageItem, 0, len(usages))
	for _, u := range usages {
		items = append(items, dto.UsageItem{
			ID:         u.ID,
			UserID:     u.UserID,
			CampaignID: u.CampaignID,
			BusinessID: u.BusinessID,
			UsedAt:     u.UsedAt,
		})
	}

	return &dto.ListUsageResponse{
		Message:  "Usage records retrieved",
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DownloadUsageExcel exports the matching redemption records to xlsx
func (s *AdminReportFlowImpl) DownloadUsageExcel(ctx context.Context, req *dto.ListUsageRequest) (string, []byte, error) {
	filter, err := s.buildFilter(ctx, req)
	if err != nil {
		return "", nil, err
	}

	usages, err := s.usageRepo.ByFilter(ctx, filter, "used_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("USAGE_EXPORT_FAILED", "Failed to fetch usage records", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"id", "user_id", "campaign_id", "assignment_id", "business_id", "used_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, u := range usages {
		row := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			strconv.FormatUint(uint64(u.UserID), 10),
			strconv.FormatUint(uint64(u.CampaignID), 10),
			strconv.FormatUint(uint64(u.AssignmentID), 10),
			strconv.FormatUint(uint64(u.BusinessID), 10),
			u.UsedAt.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		_ = xl.SetSheetRow(sheet, cell, &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("USAGE_EXPORT_FAILED", "Failed to build workbook", err)
	}

	filename := fmt.Sprintf("campaign_usage_%s.xlsx", utils.UTCNowFormat("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (s *AdminReportFlowImpl) buildFilter(ctx context.Context, req *dto.ListUsageRequest) (models.CampaignUsageFilter, error) {
	filter := models.CampaignUsageFilter{UserID: req.UserID}

	if req.CampaignUUID != nil {
		campaign, err := s.campaignRepo.ByUUID(ctx, *req.CampaignUUID)
		if err != nil {
			return filter, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
		}
		if campaign == nil {
			return filter, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
		}
		filter.CampaignID = &campaign.ID
	}

	return filter, nil
}
