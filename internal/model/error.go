package model

import (
	"sort"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string              `json:"error"`
	Message       string              `json:"message"`
	Fields        map[string][]string `json:"fields,omitempty"`
	CorrelationID string              `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeRestaurantNotFound   = "RESTAURANT_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	ErrCodeAlreadyAssigned      = "RESTAURANT_ALREADY_ASSIGNED"
	ErrCodeRestaurantCannotCook = "RESTAURANT_CANNOT_COOK"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound           = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrRestaurantNotFound        = NewDomainError(ErrCodeRestaurantNotFound, "Restaurant not found")
	ErrOrderNotFound             = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidStatusTransition   = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrRestaurantAlreadyAssigned = NewDomainError(ErrCodeAlreadyAssigned, "Order already has a restaurant assigned")
	ErrRestaurantCannotCook      = NewDomainError(ErrCodeRestaurantCannotCook, "Restaurant cannot cook every product of the order")
)

// ValidationError carries field-keyed messages for a rejected submission.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds messages, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
