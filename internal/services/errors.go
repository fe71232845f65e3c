// Package services holds the mapping business logic: deduplicated creation of
// surrogates and resolution with access counting. This file centralizes the
// service-level error values so handlers can map them to HTTP results.
package services

import "errors"

var (
	// ErrMappingNotFound indicates that no valid mapping exists for the
	// requested surrogate. Expired mappings are reported the same way as
	// mappings that never existed.
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrStorage wraps any failure reported by the storage backend. The
	// original cause stays reachable through errors.Is / errors.As.
	ErrStorage = errors.New("storage failure")
)
