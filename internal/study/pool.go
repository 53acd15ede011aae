package study

import (
	"fmt"
)

// TargetKind classifies a placed target.
type TargetKind int

const (
	KindStart TargetKind = iota
	KindGoal
	KindDistractor
)

func (k TargetKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindGoal:
		return "goal"
	case KindDistractor:
		return "distractor"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

func (k TargetKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TargetKind) UnmarshalText(b []byte) error {
	for _, c := range []TargetKind{KindStart, KindGoal, KindDistractor} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown target kind %q", b)
}

// TargetState is the visual state of a target.
type TargetState int

const (
	StateIdle TargetState = iota
	StateHovered
	StateSelected
)

func (s TargetState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovered:
		return "hovered"
	case StateSelected:
		return "selected"
	default:
		return fmt.Sprintf("TargetState(%d)", int(s))
	}
}

func (s TargetState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TargetState) UnmarshalText(b []byte) error {
	for _, c := range []TargetState{StateIdle, StateHovered, StateSelected} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown target state %q", b)
}

// TargetID identifies a target for the lifetime of its pool. IDs are never reused.
type TargetID int

// Target is a placed target.
type Target struct {
	ID       TargetID    `json:"id"`
	Position Point       `json:"position"`
	Size     float64     `json:"size"`
	Kind     TargetKind  `json:"kind"`
	State    TargetState `json:"state"`
}

// TargetPool holds the live targets of the current phase.
// It is not safe for concurrent use.
type TargetPool struct {
	nextID  TargetID
	order   []TargetID
	targets map[TargetID]*Target
}

func NewTargetPool() *TargetPool {
	return &TargetPool{nextID: 1, targets: make(map[TargetID]*Target)}
}

// SpawnStart adds a start target.
func (p *TargetPool) SpawnStart(pos Point, size float64) Target {
	return p.add(pos, size, KindStart)
}

// SpawnTrial adds the goal followed by the distractors and returns them in that order.
func (p *TargetPool) SpawnTrial(goal Point, distractors []Point, size float64) []Target {
	out := make([]Target, 0, len(distractors)+1)
	out = append(out, p.add(goal, size, KindGoal))
	for _, d := range distractors {
		out = append(out, p.add(d, size, KindDistractor))
	}
	return out
}

func (p *TargetPool) add(pos Point, size float64, kind TargetKind) Target {
	t := &Target{ID: p.nextID, Position: pos, Size: size, Kind: kind, State: StateIdle}
	p.nextID++
	p.targets[t.ID] = t
	p.order = append(p.order, t.ID)
	return *t
}

// Clear removes every target, including selected ones. Calling it on an
// empty pool is a no-op.
func (p *TargetPool) Clear() {
	clear(p.targets)
	p.order = p.order[:0]
}

// Classify returns the kind of the target with the given id.
func (p *TargetPool) Classify(id TargetID) (TargetKind, error) {
	t, ok := p.targets[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	return t.Kind, nil
}

// SetState moves a target to state. Selected is terminal: hover changes on a
// selected target are silently ignored and selecting it again fails with
// ErrAlreadySelected.
func (p *TargetPool) SetState(id TargetID, state TargetState) error {
	t, ok := p.targets[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	if t.State == StateSelected {
		if state == StateSelected {
			return fmt.Errorf("%w: %d", ErrAlreadySelected, id)
		}
		return nil
	}
	t.State = state
	return nil
}

func (p *TargetPool) HoverEnter(id TargetID) error { return p.SetState(id, StateHovered) }
func (p *TargetPool) HoverExit(id TargetID) error  { return p.SetState(id, StateIdle) }

// Select marks a target as selected and returns its kind.
func (p *TargetPool) Select(id TargetID) (TargetKind, error) {
	if err := p.SetState(id, StateSelected); err != nil {
		return 0, err
	}
	return p.targets[id].Kind, nil
}

// Get returns a copy of the target.
func (p *TargetPool) Get(id TargetID) (Target, bool) {
	t, ok := p.targets[id]
	if !ok {
		return Target{}, false
	}
	return *t, true
}

// Targets returns a snapshot of the live targets in spawn order.
func (p *TargetPool) Targets() []Target {
	out := make([]Target, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.targets[id])
	}
	return out
}

func (p *TargetPool) Len() int { return len(p.order) }

// Count returns the number of live targets of kind k.
func (p *TargetPool) Count(k TargetKind) int {
	n := 0
	for _, t := range p.targets {
		if t.Kind == k {
			n++
		}
	}
	return n
}
