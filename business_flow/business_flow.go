// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/mekankolik/mekankolik-api/config"
	"github.com/mekankolik/mekankolik-api/models"
	"github.com/mekankolik/mekankolik-api/repository"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for activity logging and tracing
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

func getUser(ctx context.Context, repo repository.UserRepository, userID uint) (*models.User, error) {
	user, err := repo.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func getBusiness(ctx context.Context, repo repository.BusinessRepository, businessID uint) (*models.Business, error) {
	business, err := repo.ByID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup business: %w", err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}
	return business, nil
}

func getCampaign(ctx context.Context, repo repository.CampaignRepository, campaignID uint) (*models.Campaign, error) {
	campaign, err := repo.ByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}
