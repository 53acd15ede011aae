package study

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Phase is the acquisition phase of a TrialSession.
type Phase int

const (
	AwaitingStart Phase = iota
	AwaitingGoal
	Completed
)

func (p Phase) String() string {
	switch p {
	case AwaitingStart:
		return "awaiting_start"
	case AwaitingGoal:
		return "awaiting_goal"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{AwaitingStart, AwaitingGoal, Completed} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// TrialRecord is emitted once per completed trial.
type TrialRecord struct {
	ParticipantID int     `json:"participantId"`
	CursorType    string  `json:"cursorType"`
	TrialIndex    int     `json:"trialIndex"`
	Amplitude     float64 `json:"amplitude"`
	TargetSize    float64 `json:"targetSize"`
	WidthRatio    float64 `json:"widthRatio"`
	// MovementTime is the session time elapsed since the previous trial boundary.
	MovementTime time.Duration `json:"-"`
	// AcquisitionTime is measured from the start target selection.
	AcquisitionTime    time.Duration `json:"-"`
	MissedClicks       int           `json:"missedClicks"`
	Start              Point         `json:"start"`
	Goal               Point         `json:"goal"`
	Distractors        int           `json:"distractors"`
	DegradedPlacements int           `json:"degradedPlacements"`
	CompletedAt        time.Time     `json:"completedAt"`
}

// Summary is emitted once when the last trial completes.
type Summary struct {
	ParticipantID int           `json:"participantId"`
	CursorType    string        `json:"cursorType"`
	Trials        int           `json:"trials"`
	MissedClicks  int           `json:"missedClicks"`
	TotalTime     time.Duration `json:"-"`
}

// Listener receives session notifications. Calls happen synchronously on the
// goroutine delivering the event.
type Listener interface {
	TrialCompleted(TrialRecord)
	SessionCompleted(Summary)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnTrial   func(TrialRecord)
	OnSession func(Summary)
}

func (l ListenerFuncs) TrialCompleted(r TrialRecord) {
	if l.OnTrial != nil {
		l.OnTrial(r)
	}
}

func (l ListenerFuncs) SessionCompleted(s Summary) {
	if l.OnSession != nil {
		l.OnSession(s)
	}
}

// SessionConfig holds the dependencies of a TrialSession.
type SessionConfig struct {
	ParticipantID int
	CursorType    string
	Block         BlockSequence
	Pool          *TargetPool
	Planner       *Planner
	Listener      Listener
	Logger        *zap.Logger
	// StartSize is the diameter of the start target. Zero uses the current
	// condition's target size.
	StartSize float64
	// Now stamps records. Defaults to time.Now.
	Now func() time.Time
}

// SessionState is a read-only view of a TrialSession.
type SessionState struct {
	ParticipantID int             `json:"participantId"`
	CursorType    string          `json:"cursorType"`
	Phase         Phase           `json:"phase"`
	TrialIndex    int             `json:"trialIndex"`
	Trials        int             `json:"trials"`
	Condition     *TrialCondition `json:"condition,omitempty"`
	Elapsed       time.Duration   `json:"-"`
	MissedClicks  int             `json:"missedClicks"`
	Targets       []Target        `json:"targets"`
}

// TrialSession drives a participant through a BlockSequence. It is not safe
// for concurrent use; callers serialize events.
type TrialSession struct {
	participantID int
	cursorType    string
	block         BlockSequence
	pool          *TargetPool
	planner       *Planner
	listener      Listener
	log           *zap.Logger
	startSize     float64
	now           func() time.Time

	phase        Phase
	index        int
	elapsed      time.Duration
	goalElapsed  time.Duration
	missed       int
	totalMissed  int
	totalElapsed time.Duration

	start    Point
	layout   Layout
	degraded int
}

// NewTrialSession validates cfg and spawns the first start target.
func NewTrialSession(cfg SessionConfig) (*TrialSession, error) {
	if len(cfg.Block) == 0 {
		return nil, fmt.Errorf("%w: empty block sequence", ErrInvalidConfiguration)
	}
	if cfg.Pool == nil || cfg.Planner == nil {
		return nil, fmt.Errorf("%w: session needs a target pool and a planner", ErrInvalidConfiguration)
	}
	if cfg.Listener == nil {
		cfg.Listener = ListenerFuncs{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &TrialSession{
		participantID: cfg.ParticipantID,
		cursorType:    cfg.CursorType,
		block:         cfg.Block,
		pool:          cfg.Pool,
		planner:       cfg.Planner,
		listener:      cfg.Listener,
		log:           cfg.Logger.With(zap.Int("participant", cfg.ParticipantID), zap.String("cursor", cfg.CursorType)),
		startSize:     cfg.StartSize,
		now:           cfg.Now,
		phase:         AwaitingStart,
	}
	s.spawnStart()
	return s, nil
}

// StartSelected spawns the goal and distractors for the current trial.
func (s *TrialSession) StartSelected() error {
	if err := s.expect(AwaitingStart, "start selected"); err != nil {
		return err
	}

	cond := s.block[s.index]
	layout, err := s.planner.Plan(s.start, cond)
	if err != nil {
		s.log.Warn("Placement degraded",
			zap.Int("trial", s.index),
			zap.Int("degraded", layout.Degraded),
			zap.Error(err),
		)
	}

	s.pool.Clear()
	s.pool.SpawnTrial(layout.Goal, layout.Distractors, cond.TargetSize)
	s.layout = layout
	s.degraded = layout.Degraded
	s.goalElapsed = 0
	s.phase = AwaitingGoal
	s.log.Debug("Goal phase started",
		zap.Int("trial", s.index),
		zap.Float64("amplitude", cond.Amplitude),
		zap.Float64("size", cond.TargetSize),
		zap.Int("distractors", len(layout.Distractors)),
	)
	return nil
}

// DistractorSelected counts a miss for the current trial.
func (s *TrialSession) DistractorSelected() error {
	if err := s.expect(AwaitingGoal, "distractor selected"); err != nil {
		return err
	}
	s.missed++
	return nil
}

// BackgroundClicked counts a click that hit no target. Outside the goal
// phase it is ignored.
func (s *TrialSession) BackgroundClicked() error {
	if s.phase == Completed {
		return s.completedErr("background click")
	}
	if s.phase == AwaitingGoal {
		s.missed++
	}
	return nil
}

// GoalSelected finishes the current trial and either spawns the next start
// target or completes the session.
func (s *TrialSession) GoalSelected() error {
	if err := s.expect(AwaitingGoal, "goal selected"); err != nil {
		return err
	}

	cond := s.block[s.index]
	record := TrialRecord{
		ParticipantID:      s.participantID,
		CursorType:         s.cursorType,
		TrialIndex:         s.index,
		Amplitude:          cond.Amplitude,
		TargetSize:         cond.TargetSize,
		WidthRatio:         cond.WidthRatio,
		MovementTime:       s.elapsed,
		AcquisitionTime:    s.goalElapsed,
		MissedClicks:       s.missed,
		Start:              s.start,
		Goal:               s.layout.Goal,
		Distractors:        len(s.layout.Distractors),
		DegradedPlacements: s.degraded,
		CompletedAt:        s.now(),
	}

	s.totalElapsed += s.elapsed
	s.totalMissed += s.missed
	s.elapsed, s.goalElapsed, s.missed, s.degraded = 0, 0, 0, 0
	s.layout = Layout{}
	s.index++

	s.pool.Clear()
	if s.index == len(s.block) {
		s.phase = Completed
	} else {
		s.spawnStart()
		s.phase = AwaitingStart
	}

	s.listener.TrialCompleted(record)
	if s.phase == Completed {
		s.log.Info("Session completed", zap.Int("trials", len(s.block)))
		s.listener.SessionCompleted(Summary{
			ParticipantID: s.participantID,
			CursorType:    s.cursorType,
			Trials:        len(s.block),
			MissedClicks:  s.totalMissed,
			TotalTime:     s.totalElapsed,
		})
	}
	return nil
}

// Tick advances the trial clock. It has no effect once the session is completed.
func (s *TrialSession) Tick(dt time.Duration) {
	if s.phase == Completed || dt <= 0 {
		return
	}
	s.elapsed += dt
	if s.phase == AwaitingGoal {
		s.goalElapsed += dt
	}
}

// Select routes a selection of target id to the matching transition.
func (s *TrialSession) Select(id TargetID) error {
	if s.phase == Completed {
		return s.completedErr("select")
	}
	kind, err := s.pool.Classify(id)
	if err != nil {
		s.log.Warn("Ignoring selection", zap.Int("target", int(id)), zap.Error(err))
		return err
	}

	want := AwaitingGoal
	if kind == KindStart {
		want = AwaitingStart
	}
	if err := s.expect(want, kind.String()+" selected"); err != nil {
		return err
	}
	if _, err := s.pool.Select(id); err != nil {
		s.log.Debug("Ignoring selection", zap.Int("target", int(id)), zap.Error(err))
		return err
	}

	switch kind {
	case KindStart:
		return s.StartSelected()
	case KindGoal:
		return s.GoalSelected()
	default:
		return s.DistractorSelected()
	}
}

// HoverEnter marks a target as hovered. Selected targets are left alone.
func (s *TrialSession) HoverEnter(id TargetID) error {
	if s.phase == Completed {
		return s.completedErr("hover")
	}
	return s.pool.HoverEnter(id)
}

// HoverExit returns a hovered target to idle. Selected targets are left alone.
func (s *TrialSession) HoverExit(id TargetID) error {
	if s.phase == Completed {
		return s.completedErr("hover")
	}
	return s.pool.HoverExit(id)
}

// Reset abandons the current trial: the clock and miss count are cleared and
// a fresh start target is spawned. The trial index does not change.
func (s *TrialSession) Reset() error {
	if s.phase == Completed {
		return s.completedErr("reset")
	}
	s.pool.Clear()
	s.elapsed, s.goalElapsed, s.missed, s.degraded = 0, 0, 0, 0
	s.layout = Layout{}
	s.spawnStart()
	s.phase = AwaitingStart
	s.log.Info("Trial reset", zap.Int("trial", s.index))
	return nil
}

// CurrentTrial returns the condition of the trial in progress.
func (s *TrialSession) CurrentTrial() (TrialCondition, bool) {
	if s.index >= len(s.block) {
		return TrialCondition{}, false
	}
	return s.block[s.index], true
}

func (s *TrialSession) Phase() Phase                             { return s.phase }
func (s *TrialSession) TrialIndex() int                          { return s.index }
func (s *TrialSession) Len() int                                 { return len(s.block) }
func (s *TrialSession) Elapsed() time.Duration                   { return s.elapsed }
func (s *TrialSession) MissedClicks() int                        { return s.missed }
func (s *TrialSession) ParticipantID() int                       { return s.participantID }
func (s *TrialSession) CursorType() string                       { return s.cursorType }
func (s *TrialSession) Block() BlockSequence                     { return append(BlockSequence(nil), s.block...) }
func (s *TrialSession) Targets() []Target                        { return s.pool.Targets() }
func (s *TrialSession) Classify(id TargetID) (TargetKind, error) { return s.pool.Classify(id) }

// Snapshot returns the current state for display or transport.
func (s *TrialSession) Snapshot() SessionState {
	st := SessionState{
		ParticipantID: s.participantID,
		CursorType:    s.cursorType,
		Phase:         s.phase,
		TrialIndex:    s.index,
		Trials:        len(s.block),
		Elapsed:       s.elapsed,
		MissedClicks:  s.missed,
		Targets:       s.pool.Targets(),
	}
	if cond, ok := s.CurrentTrial(); ok {
		st.Condition = &cond
	}
	return st
}

func (s *TrialSession) spawnStart() {
	size := s.startSize
	if size <= 0 {
		size = s.block[s.index].TargetSize
	}
	s.start = s.planner.Bounds().Center()
	s.pool.SpawnStart(s.start, size)
}

func (s *TrialSession) expect(want Phase, event string) error {
	if s.phase == Completed {
		return s.completedErr(event)
	}
	if s.phase != want {
		err := fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, s.phase)
		s.log.Warn("Ignoring event", zap.String("event", event), zap.Stringer("phase", s.phase), zap.Int("trial", s.index))
		return err
	}
	return nil
}

func (s *TrialSession) completedErr(event string) error {
	s.log.Info("Ignoring event after completion", zap.String("event", event))
	return fmt.Errorf("%w: %s", ErrSessionCompleted, event)
}

// IsIgnorable reports whether err is a per-event error that leaves the session intact.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrUnknownTarget) ||
		errors.Is(err, ErrAlreadySelected)
}
