// Package services provides the workflow management service layer.
package services

import (
	"errors"

	"github.com/fluxion-ai/fluxion/pkg/models"
)

// Business logic errors mapped to client responses by the web layer.
var (
	// Validation errors (400 Bad Request).
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrWorkspaceRequired    = errors.New("workspace id is required")
	ErrInvalidDefinition    = errors.New("invalid workflow definition")
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrInvalidStatus        = errors.New("invalid workflow status")
)

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrWorkspaceRequired) ||
		errors.Is(err, ErrInvalidDefinition) ||
		errors.Is(err, ErrWorkspaceNotFound) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsConflictError checks if an error is a rejected state transition (HTTP 409).
func IsConflictError(err error) bool {
	return errors.Is(err, models.ErrInvalidTransition)
}
