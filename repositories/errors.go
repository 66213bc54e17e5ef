package repositories

import "errors"

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index. For
// transactions and enrollments this is an expected outcome under concurrent
// settlement, not a failure: the caller treats it as "someone else already
// wrote this row".
var ErrDuplicate = errors.New("duplicate key")
