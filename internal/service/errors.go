package service

import (
	"errors"
	"fmt"

	"taskmaster/internal/recurrence"
)

var (
	// ErrProfileMissing means a user has no provisioned profile. Profiles are
	// created with the account, so this points at bad data upstream.
	ErrProfileMissing = errors.New("profile missing")
	// ErrInvalidTimeZone means a zone name did not load from the tz database.
	ErrInvalidTimeZone = errors.New("invalid time zone")
)

// PairError is a reset failure for one user and kind.
type PairError struct {
	UserID uint
	Kind   recurrence.Kind
	Err    error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("user %d %s reset: %v", e.UserID, e.Kind, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}
