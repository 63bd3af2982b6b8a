// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/mekankolik/mekankolik-api/app/dto"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
	"github.com/mekankolik/mekankolik-api/utils"
	"gorm.io/gorm"
)

// RedemptionFlow handles minting and consuming redemption tokens
type RedemptionFlow interface {
	// RequestToken mints a redemption token for the user's assignment, or
	// returns the existing one while it is still valid.
	RequestToken(ctx context.Context, req *dto.RequestTokenRequest, metadata *ClientMetadata) (*dto.RequestTokenResponse, error)
	// ConsumeToken redeems a presented token at a business. Single-use
	// campaigns become terminal afterwards.
	ConsumeToken(ctx context.Context, req *dto.ConsumeTokenRequest, metadata *ClientMetadata) (*dto.ConsumeTokenResponse, error)
}

// RedemptionFlowImpl implements the redemption business flow
type RedemptionFlowImpl struct {
	campaignRepo   repository.CampaignRepository
	assignmentRepo repository.CampaignAssignmentRepository
	businessRepo   repository.BusinessRepository
	usageRepo      repository.CampaignUsageRepository
	db             *gorm.DB
}

// NewRedemptionFlow creates a new redemption flow instance
func NewRedemptionFlow(
	campaignRepo repository.CampaignRepository,
	assignmentRepo repository.CampaignAssignmentRepository,
	businessRepo repository.BusinessRepository,
	usageRepo repository.CampaignUsageRepository,
	db *gorm.DB,
) RedemptionFlow {
	return &RedemptionFlowImpl{
		campaignRepo:   campaignRepo,
		assignmentRepo: assignmentRepo,
		businessRepo:   businessRepo,
		usageRepo:      usageRepo,
		db:             db,
	}
}

// RequestToken mints or re-reads the redemption token of the user's assignment
func (s *RedemptionFlowImpl) RequestToken(ctx context.Context, req *dto.RequestTokenRequest, metadata *ClientMetadata) (*dto.RequestTokenResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	now := utils.UTCNow()
	if !campaign.IsCurrentlyActive(now) {
		return nil, NewBusinessError("CAMPAIGN_INACTIVE", "Campaign is not active", ErrCampaignInactive)
	}

	existing, err := s.assignmentRepo.ByUserAndCampaign(ctx, req.UserID, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ASSIGNMENT_LOOKUP_FAILED", "Failed to lookup assignment", err)
	}
	if existing == nil {
		return nil, NewBusinessError("ASSIGNMENT_NOT_FOUND", "User holds no assignment for this campaign", ErrAssignmentNotFound)
	}

	var resp *dto.RequestTokenResponse

	// The lock serializes concurrent mint requests for one assignment: the
	// second request re-reads the token minted by the first.
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		assignment, lockErr := s.assignmentRepo.LockByID(txCtx, existing.ID)
		if lockErr != nil {
			return fmt.Errorf("failed to lock assignment: %w", lockErr)
		}
		if assignment == nil {
			return ErrAssignmentNotFound
		}

		if utils.IsTrue(campaign.IsSingleUse) && utils.IsTrue(assignment.IsUsed) {
			return ErrCampaignAlreadyUsed
		}

		if assignment.HasValidToken(now) {
			resp = &dto.RequestTokenResponse{
				Message:   "Redemption token still valid",
				QRToken:   *assignment.QRToken,
				ExpiresAt: *assignment.QRExpiresAt,
				Reissued:  false,
			}
			return nil
		}

		token, genErr := utils.GenerateRedemptionToken()
		if genErr != nil {
			return genErr
		}

		expiresAt := now.Add(campaign.UsageDuration())
		if updErr := s.assignmentRepo.UpdateToken(txCtx, assignment.ID, token, expiresAt); updErr != nil {
			return fmt.Errorf("failed to store redemption token: %w", updErr)
		}

		resp = &dto.RequestTokenResponse{
			Message:   "Redemption token issued",
			QRToken:   token,
			ExpiresAt: expiresAt,
			Reissued:  true,
		}
		return nil
	})
	if err != nil {
		if IsCampaignAlreadyUsed(err) {
			return nil, NewBusinessError("CAMPAIGN_ALREADY_USED", "Campaign has already been used", err)
		}
		if IsAssignmentNotFound(err) {
			return nil, NewBusinessError("ASSIGNMENT_NOT_FOUND", "User holds no assignment for this campaign", err)
		}
		return nil, NewBusinessError("TOKEN_ISSUE_FAILED", "Failed to issue redemption token", err)
	}

	if resp.Reissued {
		tokensIssuedTotal.WithLabelValues("true").Inc()
	} else {
		tokensIssuedTotal.WithLabelValues("false").Inc()
	}

	return resp, nil
}

// ConsumeToken redeems a presented token at the given business
func (s *RedemptionFlowImpl) ConsumeToken(ctx context.Context, req *dto.ConsumeTokenRequest, metadata *ClientMetadata) (*dto.ConsumeTokenResponse, error) {
	business, err := getBusiness(ctx, s.businessRepo, req.BusinessID)
	if err != nil {
		if IsBusinessNotFound(err) {
			return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", err)
		}
		return nil, NewBusinessError("BUSINESS_LOOKUP_FAILED", "Failed to lookup business", err)
	}

	now := utils.UTCNow()
	var resp *dto.ConsumeTokenResponse

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		assignment, lockErr := s.assignmentRepo.LockByQRToken(txCtx, req.QRToken)
		if lockErr != nil {
			return fmt.Errorf("failed to lock assignment by token: %w", lockErr)
		}
		if assignment == nil {
			return ErrTokenNotFound
		}

		campaign, campErr := getCampaign(txCtx, s.campaignRepo, assignment.CampaignID)
		if campErr != nil {
			return campErr
		}

		// Expiry wins over is_used: a stale token reports expired even when
		// the assignment was already consumed.
		if !assignment.HasValidToken(now) {
			return ErrTokenExpired
		}
		if utils.IsTrue(campaign.IsSingleUse) && utils.IsTrue(assignment.IsUsed) {
			return ErrCampaignAlreadyUsed
		}
		if !campaign.IsBusinessAllowed(business.ID) {
			return ErrBusinessNotAllowed
		}

		usage := &models.CampaignUsage{
			UserID:       assignment.UserID,
			AssignmentID: assignment.ID,
			CampaignID:   campaign.ID,
			BusinessID:   business.ID,
			UsedAt:       now,
		}
		if saveErr := s.usageRepo.Save(txCtx, usage); saveErr != nil {
			return fmt.Errorf("failed to record campaign usage: %w", saveErr)
		}

		if utils.IsTrue(campaign.IsSingleUse) {
			if markErr := s.assignmentRepo.MarkUsed(txCtx, assignment.ID); markErr != nil {
				return fmt.Errorf("failed to mark assignment used: %w", markErr)
			}
		}

		resp = &dto.ConsumeTokenResponse{
			Message:       "Campaign redeemed",
			CampaignTitle: campaign.Title,
			UserID:        assignment.UserID,
			UsedAt:        now,
		}
		return nil
	})
	if err != nil {
		switch {
		case IsTokenNotFound(err):
			return nil, NewBusinessError("TOKEN_NOT_FOUND", "Redemption token not found", err)
		case IsCampaignAlreadyUsed(err):
			return nil, NewBusinessError("CAMPAIGN_ALREADY_USED", "Campaign has already been used", err)
		case IsTokenExpired(err):
			return nil, NewBusinessError("TOKEN_EXPIRED", "Redemption token has expired", err)
		case IsBusinessNotAllowed(err):
			return nil, NewBusinessError("BUSINESS_NOT_ALLOWED", "Business is not allowed for this campaign", err)
		case IsCampaignNotFound(err):
			return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", err)
		default:
			return nil, NewBusinessError("TOKEN_CONSUME_FAILED", "Failed to consume redemption token", err)
		}
	}

	tokensConsumedTotal.Inc()

	return resp, nil
}
