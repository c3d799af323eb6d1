package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Project lifecycle errors
var (
	ErrInvalidState   = errors.New("invalid project state")
	ErrAlreadyClaimed = fmt.Errorf("project already claimed: %w", ErrConflict)
	// ErrStale is returned by a store when a guarded write matched no row
	ErrStale = errors.New("stale project state")
)

// NewInvalidStateError is returned when an action is not legal from the project's current status
func NewInvalidStateError(action, status string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnprocessableEntity,
		err:        ErrInvalidState,
		Details:    fmt.Sprintf("cannot %s a project in status %s", action, status),
		Field:      "status",
	}
}

// NewNotParticipantError is returned when the actor is not allowed to perform the action on the project
func NewNotParticipantError(action string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrForbidden,
		Details:    fmt.Sprintf("not allowed to %s this project", action),
	}
}

func NewAlreadyClaimedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrAlreadyClaimed,
		Details:    "Another editor has already claimed this project",
		Field:      "editor_id",
	}
}

// NewStaleStateError is returned when the project changed between the read and the guarded write
func NewStaleStateError(action string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%w: %w", ErrConflict, ErrStale),
		Details:    fmt.Sprintf("project changed while trying to %s; refetch and try again", action),
		Cause:      cause,
	}
}

func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

func IsAlreadyClaimedError(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed)
}

func IsStaleError(err error) bool {
	return errors.Is(err, ErrStale)
}
