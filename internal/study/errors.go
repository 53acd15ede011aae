package study

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is fatal to session construction.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrPlacementDegraded means rejection sampling ran out of attempts and
	// the last candidate was used anyway. It is a warning, never fatal.
	ErrPlacementDegraded = errors.New("placement degraded")
	// ErrInvalidTransition is returned for events the current phase does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSessionCompleted is returned for events delivered after the last trial.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrUnknownTarget is returned for ids that are not in the target pool.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrAlreadySelected is returned when a selected target is selected again.
	ErrAlreadySelected = errors.New("target already selected")
)

// DegradedError describes one rejection-sampling loop that exhausted its budget.
type DegradedError struct {
	Kind     TargetKind
	Attempts int
	Point    Point
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s placement gave up after %d attempts, using (%.1f, %.1f)", e.Kind, e.Attempts, e.Point.X, e.Point.Y)
}

func (e *DegradedError) Unwrap() error { return ErrPlacementDegraded }

// DegradedCount returns how many degraded placements err carries.
func DegradedCount(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += DegradedCount(e)
		}
		return n
	}
	if errors.Is(err, ErrPlacementDegraded) {
		return 1
	}
	return 0
}
