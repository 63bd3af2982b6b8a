package models

import (
	"testing"
	"time"

	"github.com/mekankolik/mekankolik-api/utils"
	"github.com/stretchr/testify/assert"
)

func TestTokenStateAt(t *testing.T) {
	now := utils.UTCNow()
	token := "opaque-token"

	t.Run("NoTokenMinted", func(t *testing.T) {
		a := &CampaignAssignment{}
		assert.Equal(t, TokenStateNone, a.TokenStateAt(now, false))
		assert.Equal(t, TokenStateNone, a.TokenStateAt(now, true))
	})

	t.Run("ValidToken", func(t *testing.T) {
		expiry := now.Add(5 * time.Minute)
		a := &CampaignAssignment{QRToken: &token, QRExpiresAt: &expiry}
		assert.Equal(t, TokenStateValid, a.TokenStateAt(now, false))
		assert.True(t, a.HasValidToken(now))
	})

	t.Run("TokenValidAtExactExpiry", func(t *testing.T) {
		a := &CampaignAssignment{QRToken: &token, QRExpiresAt: &now}
		assert.Equal(t, TokenStateValid, a.TokenStateAt(now, false))
		assert.True(t, a.HasValidToken(now))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		expiry := now.Add(-time.Second)
		a := &CampaignAssignment{QRToken: &token, QRExpiresAt: &expiry}
		assert.Equal(t, TokenStateExpired, a.TokenStateAt(now, false))
		assert.False(t, a.HasValidToken(now))
	})

	t.Run("UsedSingleUseIsTerminal", func(t *testing.T) {
		expiry := now.Add(5 * time.Minute)
		a := &CampaignAssignment{
			QRToken:     &token,
			QRExpiresAt: &expiry,
			IsUsed:      utils.ToPtr(true),
		}
		assert.Equal(t, TokenStateUsed, a.TokenStateAt(now, true))
		// Multi-use campaigns ignore is_used for state derivation.
		assert.Equal(t, TokenStateValid, a.TokenStateAt(now, false))
	})

	t.Run("UsedSingleUseWithoutTokenIsStillUsed", func(t *testing.T) {
		a := &CampaignAssignment{IsUsed: utils.ToPtr(true)}
		assert.Equal(t, TokenStateUsed, a.TokenStateAt(now, true))
	})
}
