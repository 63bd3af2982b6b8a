package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign engine constants
const (
	// DefaultUsageDurationMinutes is the redemption token lifetime for campaigns
	// that do not specify one.
	DefaultUsageDurationMinutes = 10

	// RedemptionTokenBytes is the entropy of a redemption token before encoding.
	RedemptionTokenBytes = 16

	// ActiveDynamicCampaignsCacheKey caches the id set of active dynamic
	// campaigns consumed by the rule sweep.
	ActiveDynamicCampaignsCacheKey = "campaigns:active-dynamic"

	// ActiveDynamicCampaignsCacheTTL bounds staleness of the sweep cache.
	ActiveDynamicCampaignsCacheTTL = 1 * time.Minute
)

// Reservation constants
const (
	// ReservationCancelCutoff is how long before reservation_time a user may
	// still cancel. The cutoff is exact: at reservation_time minus one hour
	// cancellation is already rejected.
	ReservationCancelCutoff = 1 * time.Hour

	// MaxReservationPeople caps party size per reservation.
	MaxReservationPeople = 20
)

// Comment constants
const (
	// MaxCommentLength caps comment text length.
	MaxCommentLength = 1000

	MinCommentRating = 1.0
	MaxCommentRating = 5.0
)
