package interaction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated is returned for toggles without an actor. No call is made.
	ErrUnauthenticated = errors.New("interaction: unauthenticated")
	// ErrInFlight is returned when a toggle for the same post and actor has not resolved yet.
	ErrInFlight = errors.New("interaction: toggle already in flight")
	// ErrPartial is matched by every *PartialError.
	ErrPartial = errors.New("interaction: action only partially applied")
)

// PartialError reports a two-call switch whose second call failed after the
// first was confirmed. RolledBack tells whether the first call was undone.
type PartialError struct {
	Intent        Intent
	Confirmed     Op
	Failed        Op
	RolledBack    bool
	Err           error
	CompensateErr error
}

func (e *PartialError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "interaction: %s failed to complete: %s confirmed, %s failed: %v", e.Intent, e.Confirmed, e.Failed, e.Err)
	if e.RolledBack {
		b.WriteString("; rolled back")
	} else if e.CompensateErr != nil {
		fmt.Fprintf(&b, "; rollback failed: %v", e.CompensateErr)
	}
	return b.String()
}

func (e *PartialError) Unwrap() error { return e.Err }

func (e *PartialError) Is(target error) bool { return target == ErrPartial }
