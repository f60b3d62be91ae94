package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrCompanyRequired indicates a request without a tenant identifier.
	ErrCompanyRequired = errors.New("company id required")
)
