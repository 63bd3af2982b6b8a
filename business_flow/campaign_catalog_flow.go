// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignCatalogFlow handles campaign definition and listing
type CampaignCatalogFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	GetActiveCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignItem, error)
	SetCampaignActive(ctx context.Context, req *dto.SetCampaignActiveRequest) (*dto.SetCampaignActiveResponse, error)
	// ListMyCampaigns returns the user's unused assignments of currently
	// active campaigns, with progress and token state.
	ListMyCampaigns(ctx context.Context, userID uint) (*dto.ListMyCampaignsResponse, error)
}

// CampaignCatalogFlowImpl implements the campaign catalog business flow
type CampaignCatalogFlowImpl struct {
	campaignRepo   repository.CampaignRepository
	businessRepo   repository.BusinessRepository
	assignmentRepo repository.CampaignAssignmentRepository
	progressRepo   repository.CampaignProgressRepository
	db             *gorm.DB
}

// NewCampaignCatalogFlow creates a new campaign catalog flow instance
func NewCampaignCatalogFlow(
	campaignRepo repository.CampaignRepository,
	businessRepo repository.BusinessRepository,
	assignmentRepo repository.CampaignAssignmentRepository,
	progressRepo repository.CampaignProgressRepository,
	db *gorm.DB,
) CampaignCatalogFlow {
	return &CampaignCatalogFlowImpl{
		campaignRepo:   campaignRepo,
		businessRepo:   businessRepo,
		assignmentRepo: assignmentRepo,
		progressRepo:   progressRepo,
		db:             db,
	}
}

// CreateCampaign handles the complete campaign creation process
func (s *CampaignCatalogFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error) {
	if err := s.validateCreateCampaignRequest(req); err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", err)
	}

	criteria, err := models.ParseCriteriaSet(req.Criteria)
	if err != nil {
		return nil, NewBusinessError("INVALID_CRITERIA_VALUE", "Criteria validation failed", fmt.Errorf("%w: %v", ErrInvalidCriteriaValue, err))
	}

	ruleType := models.RuleType(req.RuleType)
	triggerEvent := models.TriggerEventNone
	if req.TriggerEvent != nil {
		triggerEvent = models.TriggerEvent(*req.TriggerEvent)
	}

	usageDuration := utils.DefaultUsageDurationMinutes
	if req.UsageDurationMinutes != nil {
		usageDuration = *req.UsageDurationMinutes
	}

	var campaign *models.Campaign

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		for _, businessID := range req.AllowedBusinessIDs {
			if _, lookupErr := getBusiness(txCtx, s.businessRepo, businessID); lookupErr != nil {
				if IsBusinessNotFound(lookupErr) {
					return ErrAllowedBusinessUnknown
				}
				return lookupErr
			}
		}

		campaign = &models.Campaign{
			Title:                req.Title,
			Description:          req.Description,
			StartDate:            req.StartDate,
			EndDate:              req.EndDate,
			IsActive:             utils.ToPtr(true),
			RuleType:             ruleType,
			TriggerEvent:         triggerEvent,
			Criteria:             criteria,
			IsSingleUse:          req.IsSingleUse,
			UsageDurationMinutes: usageDuration,
		}
		if saveErr := s.campaignRepo.Save(txCtx, campaign); saveErr != nil {
			return fmt.Errorf("failed to save campaign: %w", saveErr)
		}

		if len(req.AllowedBusinessIDs) > 0 {
			if linkErr := s.campaignRepo.ReplaceAllowedBusinesses(txCtx, campaign.ID, req.AllowedBusinessIDs); linkErr != nil {
				return fmt.Errorf("failed to link allowed businesses: %w", linkErr)
			}
		}

		return nil
	})
	if err != nil {
		if IsBusinessNotFound(err) || errors.Is(err, ErrAllowedBusinessUnknown) {
			return nil, NewBusinessError("ALLOWED_BUSINESS_UNKNOWN", "Allowed business does not exist", err)
		}
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	return &dto.CreateCampaignResponse{
		Message:   "Campaign created",
		ID:        campaign.ID,
		UUID:      campaign.UUID.String(),
		CreatedAt: campaign.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ListCampaigns lists campaigns with pagination
func (s *CampaignCatalogFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	page := req.Page
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.CampaignFilter{IsActive: req.IsActive}
	if req.RuleType != nil {
		ruleType := models.RuleType(*req.RuleType)
		filter.RuleType = &ruleType
	}

	total, err := s.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to count campaigns", err)
	}

	campaigns, err := s.campaignRepo.ByFilter(ctx, filter, "id ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	items := make([]dto.CampaignItem, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, toCampaignItem(c))
	}

	return &dto.ListCampaignsResponse{
		Message:   "Campaigns retrieved",
		Items:     items,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		TotalPage: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// GetActiveCampaign retrieves a campaign that is active and within its window
func (s *CampaignCatalogFlowImpl) GetActiveCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignItem, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if !campaign.IsCurrentlyActive(utils.UTCNow()) {
		return nil, NewBusinessError("CAMPAIGN_INACTIVE", "Campaign is not active", ErrCampaignInactive)
	}

	item := toCampaignItem(campaign)
	return &item, nil
}

// SetCampaignActive toggles the active flag of a campaign
func (s *CampaignCatalogFlowImpl) SetCampaignActive(ctx context.Context, req *dto.SetCampaignActiveRequest) (*dto.SetCampaignActiveResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	if err := s.campaignRepo.SetActive(ctx, campaign.ID, req.IsActive); err != nil {
		return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "Failed to update campaign", err)
	}

	return &dto.SetCampaignActiveResponse{Message: "Campaign updated"}, nil
}

// ListMyCampaigns returns the user's unused assignments of active campaigns
func (s *CampaignCatalogFlowImpl) ListMyCampaigns(ctx context.Context, userID uint) (*dto.ListMyCampaignsResponse, error) {
	now := utils.UTCNow()

	assignments, err := s.assignmentRepo.ListActiveForUser(ctx, userID, now)
	if err != nil {
		return nil, NewBusinessError("MY_CAMPAIGNS_FAILED", "Failed to list assigned campaigns", err)
	}

	items := make([]dto.MyCampaignItem, 0, len(assignments))
	for _, assignment := range assignments {
		campaign := assignment.Campaign
		if campaign == nil {
			continue
		}
		singleUse := utils.IsTrue(campaign.IsSingleUse)
		if singleUse && utils.IsTrue(assignment.IsUsed) {
			continue
		}

		item := dto.MyCampaignItem{
			CampaignID:  campaign.ID,
			UUID:        campaign.UUID.String(),
			Title:       campaign.Title,
			Description: campaign.Description,
			EndDate:     campaign.EndDate,
			IsSingleUse: singleUse,
			AssignedAt:  assignment.AssignedAt,
			TokenState:  string(assignment.TokenStateAt(now, singleUse)),
			QRExpiresAt: assignment.QRExpiresAt,
		}

		progress, progErr := s.progressRepo.ByAssignmentID(ctx, assignment.ID)
		if progErr != nil {
			return nil, NewBusinessError("MY_CAMPAIGNS_FAILED", "Failed to load progress", progErr)
		}
		if progress != nil {
			item.ProgressView = &dto.Progress{
				CommentsMade:      progress.CommentsMade,
				ReservationsMade:  progress.ReservationsMade,
				BusinessesVisited: progress.BusinessesVisited,
				TotalSpend:        progress.TotalSpend,
				LastUpdated:       progress.LastUpdated,
			}
		}

		items = append(items, item)
	}

	return &dto.ListMyCampaignsResponse{
		Message: "Assigned campaigns retrieved",
		Items:   items,
	}, nil
}

func (s *CampaignCatalogFlowImpl) validateCreateCampaignRequest(req *dto.CreateCampaignRequest) error {
	if req.Title == "" {
		return ErrCampaignTitleRequired
	}
	if !req.StartDate.Before(req.EndDate) {
		return ErrCampaignWindowInvalid
	}
	ruleType := models.RuleType(req.RuleType)
	if !ruleType.Valid() {
		return ErrInvalidRuleType
	}
	if req.TriggerEvent != nil && !models.TriggerEvent(*req.TriggerEvent).Valid() {
		return ErrInvalidTriggerEvent
	}
	if req.UsageDurationMinutes != nil && *req.UsageDurationMinutes <= 0 {
		return ErrUsageDurationInvalid
	}
	return nil
}

func toCampaignItem(c *models.Campaign) dto.CampaignItem {
	allowed := make([]uint, 0, len(c.AllowedBusinesses))
	for _, b := range c.AllowedBusinesses {
		allowed = append(allowed, b.BusinessID)
	}

	criteria := make(map[string]decimal.Decimal, len(c.Criteria.Criteria))
	for _, criterion := range c.Criteria.Criteria {
		criteria[criterion.Key] = criterion.Threshold
	}

	return dto.CampaignItem{
		ID:                   c.ID,
		UUID:                 c.UUID.String(),
		Title:                c.Title,
		Description:          c.Description,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		IsActive:             utils.IsTrue(c.IsActive),
		RuleType:             string(c.RuleType),
		TriggerEvent:         string(c.TriggerEvent),
		Criteria:             criteria,
		IsSingleUse:          utils.IsTrue(c.IsSingleUse),
		UsageDurationMinutes: c.UsageDurationMinutes,
		AllowedBusinessIDs:   allowed,
	}
}
