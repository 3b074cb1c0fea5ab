// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// error strings.
package repository

import "errors"

// ErrServiceNotFound is returned when a catalog entry does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrServiceNotFound = errors.New("service not found")

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a guarded status update matches zero
// rows, meaning a concurrent writer changed the booking's status between
// the read and the write. Handlers should translate this into HTTP 409.
var ErrStatusConflict = errors.New("booking status changed concurrently")
