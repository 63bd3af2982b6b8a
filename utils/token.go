// Package utils provides utility functions for the application.
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateRedemptionToken returns an unguessable, URL-safe opaque token used
// as redemption proof. Uniqueness is enforced by the storage layer.
func GenerateRedemptionToken() (string, error) {
	buf := make([]byte, RedemptionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate redemption token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
