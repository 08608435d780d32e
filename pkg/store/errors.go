package store

import "errors"

// ErrNotFound is returned when something is not found in the store.
var ErrNotFound = errors.New("not found")

// ErrMissingUserID is returned when a keyed read or write is attempted without
// the owning user's identifier.
var ErrMissingUserID = errors.New("missing user id")
