package leads

import "errors"

var (
	// ErrInvalidName is returned when the name is missing or blank
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidStatus is returned for a status outside the pipeline vocabulary
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrNegativeValue is returned when the lead value is below zero
	ErrNegativeValue = errors.New("lead value must be non-negative")

	// ErrEmptyPatch is returned when an update touches no fields
	ErrEmptyPatch = errors.New("update patch is empty")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
