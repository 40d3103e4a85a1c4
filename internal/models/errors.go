package models

import (
	"errors"
	"fmt"
)

// Common error types
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("operation conflicts with current state")
	ErrPrecondition = errors.New("precondition failed")
)

// AppError represents an application-level error with context
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrInvalidInput creates a validation error, rejected before any state mutation
func ErrInvalidInput(message string) error {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
	}
}

// ErrNotFoundWithMsg creates a not found error with custom message
func ErrNotFoundWithMsg(message string) error {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Err:     ErrNotFound,
	}
}

// ErrConflictWithMsg creates a conflict error with custom message
func ErrConflictWithMsg(message string) error {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Err:     ErrConflict,
	}
}

// ErrPreconditionFailed creates an illegal-state-transition error, e.g.
// starting a campaign that is already sending or whose instance is
// disconnected. The campaign's status is left unchanged.
func ErrPreconditionFailed(message string) error {
	return &AppError{
		Code:    "PRECONDITION_FAILED",
		Message: message,
		Err:     ErrPrecondition,
	}
}

// ErrEmptyCampaign signals a start attempt against a campaign with no
// pending delivery records.
func ErrEmptyCampaign(campaignID int64) error {
	return &AppError{
		Code:    "EMPTY_CAMPAIGN",
		Message: fmt.Sprintf("campaign %d has no pending recipients", campaignID),
		Err:     ErrPrecondition,
	}
}

// ErrCampaignFatal wraps an infrastructure failure during batch
// processing. The campaign is moved to the error status and the failure
// is surfaced to the trigger caller.
func ErrCampaignFatal(message string, err error) error {
	return &AppError{
		Code:    "CAMPAIGN_FATAL",
		Message: message,
		Err:     err,
	}
}
