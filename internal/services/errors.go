package services

import "errors"

// Service errors are sentinels so handlers can map them to HTTP statuses or
// socket error events without string matching.
var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrTripNotFound     = errors.New("trip not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInviteNotFound   = errors.New("invite not found")

	ErrNotMember = errors.New("not a member of this group")
	ErrNotHost   = errors.New("host role required")

	// ErrVersionConflict is returned when a caller supplies a stale expected
	// version on an optimistic update. Distinct from not-found: the row
	// exists, someone else got there first.
	ErrVersionConflict = errors.New("version conflict: the record was modified by someone else")
)
