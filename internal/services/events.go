package services

import (
	"errors"
	"fmt"
	"time"

	"fitts-go/internal/study"
)

// EventType names an input event delivered to a live session.
type EventType string

const (
	EventTick       EventType = "tick"
	EventHoverEnter EventType = "hover_enter"
	EventHoverExit  EventType = "hover_exit"
	EventSelect     EventType = "select"
	EventBackground EventType = "background"
	EventStart      EventType = "start"
	EventGoal       EventType = "goal"
	EventDistractor EventType = "distractor"
	EventReset      EventType = "reset"
)

// ErrUnknownEvent is returned for an event type the session does not handle.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is one input event. Target is required for hover and select events;
// DeltaMS is the elapsed time for tick events under the client clock.
type Event struct {
	Type    EventType      `json:"type" binding:"required"`
	Target  study.TargetID `json:"target,omitempty"`
	DeltaMS float64        `json:"dt_ms,omitempty"`
}

func (e Event) delta() time.Duration {
	return time.Duration(e.DeltaMS * float64(time.Millisecond))
}

// apply dispatches e to s.
func (e Event) apply(s *study.TrialSession) error {
	switch e.Type {
	case EventTick:
		s.Tick(e.delta())
		return nil
	case EventHoverEnter:
		return s.HoverEnter(e.Target)
	case EventHoverExit:
		return s.HoverExit(e.Target)
	case EventSelect:
		return s.Select(e.Target)
	case EventBackground:
		return s.BackgroundClicked()
	case EventStart:
		return s.StartSelected()
	case EventGoal:
		return s.GoalSelected()
	case EventDistractor:
		return s.DistractorSelected()
	case EventReset:
		return s.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

// IgnoreReason labels a per-event error for metrics and clients.
func IgnoreReason(err error) string {
	switch {
	case errors.Is(err, study.ErrSessionCompleted):
		return "session_completed"
	case errors.Is(err, study.ErrUnknownTarget):
		return "unknown_target"
	case errors.Is(err, study.ErrAlreadySelected):
		return "already_selected"
	case errors.Is(err, study.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	default:
		return "error"
	}
}

// Notification is pushed to live subscribers of a session.
type Notification struct {
	Type    string              `json:"type"`
	Trial   *study.TrialRecord  `json:"trial,omitempty"`
	Summary *study.Summary      `json:"summary,omitempty"`
	State   *study.SessionState `json:"state,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	Error   string              `json:"error,omitempty"`
}

const (
	NotifyState   = "state"
	NotifyTrial   = "trial"
	NotifySession = "session"
	NotifyIgnored = "ignored"
)
