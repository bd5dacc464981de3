// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// match service and handlers to distinguish between different failure
// scenarios with errors.Is instead of inspecting driver errors. Any
// database fault that is not one of these values is surfaced to the
// caller unchanged and treated as a store error.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, such as deleting another user's
// match. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot be
// performed because of conflicting state, such as a duplicate
// stadium name or a generated match id colliding with an existing
// one. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrMatchNotFound is returned when a match lookup matches no row.
var ErrMatchNotFound = errors.New("match not found")

// ErrStadiumNotFound is returned when a stadium lookup matches no row.
var ErrStadiumNotFound = errors.New("stadium not found")

// ErrNoMatchingStadium is returned by the allocator when no stadium
// supports the requested activity type within the initiator's unit.
var ErrNoMatchingStadium = errors.New("no matching stadium")

// ErrStadiumFull is returned by the allocator when candidate stadiums
// exist but none has enough remaining capacity for the requested
// group. Capacities are left unchanged when this is returned.
var ErrStadiumFull = errors.New("no stadium with sufficient capacity")

// ErrCapacityConflict is returned when a guarded capacity update does
// not apply because the stadium's occupied counter changed between
// read and write (reserve) or would drop below zero (release). The
// allocator retries on this; elsewhere it maps to HTTP 409.
var ErrCapacityConflict = errors.New("stadium capacity conflict")
