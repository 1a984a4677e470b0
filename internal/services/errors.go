// Package services implements the business logic for contact relay,
// newsletter membership, and the catalog proxy. This file centralizes
// service-level error values and types so handlers can map them to HTTP
// results consistently.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLineItems is returned when a checkout request carries an empty
	// or unparseable line-item payload.
	ErrNoLineItems = errors.New("checkout requires at least one line item")

	// ErrNoObjectIDs is returned when a stock lookup names no catalog
	// object ids.
	ErrNoObjectIDs = errors.New("stock lookup requires catalog object ids")
)

// RejectionError indicates the sender address failed validation; Code is the
// stable verdict code shown to the client (provider error code,
// "UnknownError", "NotApplicable", or "ValidationAPIError").
type RejectionError struct {
	Code string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("email address rejected: %s", e.Code)
}

// AsRejection unwraps err into a RejectionError when it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
