package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRedemptionToken(t *testing.T) {
	token, err := GenerateRedemptionToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, RedemptionTokenBytes)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := GenerateRedemptionToken()
		require.NoError(t, err)
		assert.False(t, seen[tok], "duplicate token generated")
		seen[tok] = true
	}
}
