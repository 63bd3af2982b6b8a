// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUserInactive  = errors.New("user account is inactive")
	ErrAdminRequired = errors.New("admin privileges required")

	// Business-related errors
	ErrBusinessNotFound = errors.New("business not found")
	ErrBusinessInactive = errors.New("business is inactive")

	// Campaign-related errors
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrCampaignInactive       = errors.New("campaign is not active")
	ErrCampaignWindowInvalid  = errors.New("campaign start date must be before end date")
	ErrCampaignTitleRequired  = errors.New("campaign title is required")
	ErrInvalidCriteriaValue   = errors.New("criteria threshold must not be negative")
	ErrInvalidTriggerEvent    = errors.New("trigger event is not recognized")
	ErrInvalidRuleType        = errors.New("rule type must be static or dynamic")
	ErrUsageDurationInvalid   = errors.New("usage duration must be positive")
	ErrAllowedBusinessUnknown = errors.New("allowed business does not exist")

	// Assignment-related errors
	ErrDuplicateAssignment = errors.New("user already holds an assignment for this campaign")
	ErrAssignmentNotFound  = errors.New("campaign assignment not found")

	// Redemption-related errors
	ErrCampaignAlreadyUsed = errors.New("campaign has already been used")
	ErrTokenNotFound       = errors.New("redemption token not found")
	ErrTokenExpired        = errors.New("redemption token has expired")
	ErrBusinessNotAllowed  = errors.New("business is not allowed for this campaign")

	// Progress-related errors
	ErrUnknownActionType = errors.New("action type is not recognized")
	ErrAmountRequired    = errors.New("purchase amount is required")
	ErrAmountNegative    = errors.New("purchase amount must not be negative")
	ErrBusinessRequired  = errors.New("business is required for this action")

	// Reservation-related errors
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrReservationInPast        = errors.New("reservation time must be in the future")
	ErrReservationPeopleInvalid = errors.New("number of people must be between 1 and 20")
	ErrReservationNotOwned      = errors.New("reservation belongs to another user")
	ErrReservationNotCancelable = errors.New("reservation can no longer be cancelled")

	// Comment-related errors
	ErrCommentAlreadyExists = errors.New("user already commented on this business")
	ErrCommentRatingInvalid = errors.New("rating must be between 1.0 and 5.0")
	ErrCommentTooLong       = errors.New("comment exceeds the maximum length")
	ErrCommentTextRequired  = errors.New("comment text is required")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAdminRequired(err error) bool {
	return errors.Is(err, ErrAdminRequired)
}

func IsBusinessNotFound(err error) bool {
	return errors.Is(err, ErrBusinessNotFound)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignInactive(err error) bool {
	return errors.Is(err, ErrCampaignInactive)
}

func IsInvalidCriteriaValue(err error) bool {
	return errors.Is(err, ErrInvalidCriteriaValue)
}

func IsDuplicateAssignment(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment)
}

func IsAssignmentNotFound(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound)
}

func IsCampaignAlreadyUsed(err error) bool {
	return errors.Is(err, ErrCampaignAlreadyUsed)
}

func IsTokenNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsBusinessNotAllowed(err error) bool {
	return errors.Is(err, ErrBusinessNotAllowed)
}

func IsUnknownActionType(err error) bool {
	return errors.Is(err, ErrUnknownActionType)
}

func IsReservationNotFound(err error) bool {
	return errors.Is(err, ErrReservationNotFound)
}

func IsReservationNotCancelable(err error) bool {
	return errors.Is(err, ErrReservationNotCancelable)
}

func IsCommentAlreadyExists(err error) bool {
	return errors.Is(err, ErrCommentAlreadyExists)
}

func IsCommentRatingInvalid(err error) bool {
	return errors.Is(err, ErrCommentRatingInvalid)
}
