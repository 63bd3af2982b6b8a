// Package utils provides utility functions for the application.
package utils

import "time"

// All persisted timestamps are UTC. Models and flows go through these
// helpers instead of time.Now so nothing leaks a local zone into the
// database or into token expiry comparisons.

// UTCNow returns the current time in UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowFormat returns the current UTC time formatted with the given layout.
func UTCNowFormat(layout string) string {
	return UTCNow().Format(layout)
}
