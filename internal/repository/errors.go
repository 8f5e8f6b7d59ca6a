// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. deleting
// a rack that still has shelves).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a rack that still has shelves or a book that is currently
// issued. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrShelfFull is returned when a book cannot be placed on a shelf
// because the shelf already holds its maximum capacity of books.
var ErrShelfFull = errors.New("shelf is full")

// ErrNotPending is returned when a pay or waive operation targets a
// fine whose status is no longer "pending". Fines are immutable once
// settled.
var ErrNotPending = errors.New("fine is not pending")
