package study

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultGoalAttempts       = 50
	DefaultDistractorAttempts = 100

	// cardinalSlots is the number of fixed-offset distractor positions.
	cardinalSlots = 4
)

// cardinal directions in E, N, W, S order.
var cardinals = [cardinalSlots]Point{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}

// OffsetRange bounds the radial distance of the fixed-offset distractors
// from the goal.
type OffsetRange struct {
	Min float64
	Max float64
}

// atLeast shifts the range up so that Min is no smaller than floor, keeping
// its width.
func (o OffsetRange) atLeast(floor float64) OffsetRange {
	if o.Min >= floor {
		return o
	}
	shift := floor - o.Min
	return OffsetRange{Min: floor, Max: math.Max(o.Max, o.Min) + shift}
}

func (o OffsetRange) sample(rng Rand) float64 {
	if o.Max <= o.Min {
		return o.Min
	}
	return o.Min + rng.Float64()*(o.Max-o.Min)
}

// SampleGoal draws uniform points inside bounds until one is at least
// minSeparation from every point in existing. When maxAttempts draws all fail
// the last draw is returned along with an error wrapping ErrPlacementDegraded;
// the point is usable either way.
func SampleGoal(rng Rand, bounds Bounds, existing []Point, minSeparation float64, maxAttempts int) (Point, error) {
	return rejectionSample(rng, bounds, existing, minSeparation, maxAttempts, KindGoal)
}

// SampleDistractors places count distractors around goal. Up to four of them
// sit at one sampled offset in the cardinal directions and are dropped when
// they fall outside bounds. The offset is never less than minSeparation, so
// the cardinal points keep their distance from the goal and from each other.
// Any distractors beyond four are rejection sampled against the goal and
// every distractor accepted so far.
func SampleDistractors(rng Rand, goal Point, count int, bounds Bounds, offsets OffsetRange, minSeparation float64, maxAttempts int) ([]Point, error) {
	if count <= 0 {
		return nil, nil
	}
	offsets = offsets.atLeast(minSeparation)

	fixed := min(count, cardinalSlots)
	dirs := cardinals
	offset := offsets.sample(rng)
	if fixed < cardinalSlots {
		Shuffle(dirs[:], rng)
	}

	points := make([]Point, 0, count)
	for _, d := range dirs[:fixed] {
		p := Point{X: goal.X + d.X*offset, Y: goal.Y + d.Y*offset}
		if bounds.Contains(p) {
			points = append(points, p)
		}
	}

	var errs []error
	placed := append([]Point{goal}, points...)
	for i := cardinalSlots; i < count; i++ {
		p, err := rejectionSample(rng, bounds, placed, minSeparation, maxAttempts, KindDistractor)
		if err != nil {
			errs = append(errs, err)
		}
		points = append(points, p)
		placed = append(placed, p)
	}
	return points, errors.Join(errs...)
}

// SampleGoalAtAmplitude places a point exactly amplitude away from origin at
// a uniformly drawn angle, retrying until the point lies inside bounds. When
// the budget runs out the last draw is clamped into bounds.
func SampleGoalAtAmplitude(rng Rand, origin Point, amplitude float64, bounds Bounds, maxAttempts int) (Point, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var p Point
	for i := 0; i < maxAttempts; i++ {
		theta := rng.Float64() * 2 * math.Pi
		p = Point{X: origin.X + amplitude*math.Cos(theta), Y: origin.Y + amplitude*math.Sin(theta)}
		if bounds.Contains(p) {
			return p, nil
		}
	}
	p = bounds.Clamp(p)
	return p, &DegradedError{Kind: KindGoal, Attempts: maxAttempts, Point: p}
}

func rejectionSample(rng Rand, bounds Bounds, existing []Point, minSeparation float64, maxAttempts int, kind TargetKind) (Point, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var p Point
	for i := 0; i < maxAttempts; i++ {
		p = Point{
			X: bounds.MinX + rng.Float64()*bounds.Width(),
			Y: bounds.MinY + rng.Float64()*bounds.Height(),
		}
		if separated(p, existing, minSeparation) {
			return p, nil
		}
	}
	return p, &DegradedError{Kind: kind, Attempts: maxAttempts, Point: p}
}

func separated(p Point, existing []Point, minSeparation float64) bool {
	for _, q := range existing {
		if p.Dist(q) < minSeparation {
			return false
		}
	}
	return true
}

// GoalMode selects how the planner positions the goal target.
type GoalMode string

const (
	// GoalAtAmplitude places the goal at the condition's amplitude from the start target.
	GoalAtAmplitude GoalMode = "amplitude"
	// GoalUniform places the goal anywhere on screen away from the start target.
	GoalUniform GoalMode = "uniform"
)

// PlannerConfig parameterizes a Planner.
type PlannerConfig struct {
	Bounds             Bounds
	Distractors        int
	MinSeparation      float64
	OffsetJitter       float64
	GoalMode           GoalMode
	GoalAttempts       int
	DistractorAttempts int
}

// Layout is the placement of one goal phase.
type Layout struct {
	Goal        Point
	Distractors []Point
	// Degraded counts rejection loops that exhausted their budget.
	Degraded int
}

// Planner turns a TrialCondition into a Layout.
type Planner struct {
	cfg PlannerConfig
	rng Rand
}

// Validate checks the placement settings. An empty GoalMode is accepted and
// means GoalAtAmplitude.
func (c PlannerConfig) Validate() error {
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.Distractors < 0 {
		return fmt.Errorf("%w: negative distractor count %d", ErrInvalidConfiguration, c.Distractors)
	}
	if c.MinSeparation < 0 || c.OffsetJitter < 0 || math.IsNaN(c.MinSeparation) || math.IsNaN(c.OffsetJitter) {
		return fmt.Errorf("%w: separation and jitter must not be negative", ErrInvalidConfiguration)
	}
	switch c.GoalMode {
	case "", GoalAtAmplitude, GoalUniform:
	default:
		return fmt.Errorf("%w: unknown goal mode %q", ErrInvalidConfiguration, c.GoalMode)
	}
	return nil
}

// NewPlanner validates cfg and fills in default attempt caps.
func NewPlanner(cfg PlannerConfig, rng Rand) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfiguration)
	}
	if cfg.GoalMode == "" {
		cfg.GoalMode = GoalAtAmplitude
	}
	if cfg.GoalAttempts <= 0 {
		cfg.GoalAttempts = DefaultGoalAttempts
	}
	if cfg.DistractorAttempts <= 0 {
		cfg.DistractorAttempts = DefaultDistractorAttempts
	}
	return &Planner{cfg: cfg, rng: rng}, nil
}

// Bounds returns the full placement area.
func (p *Planner) Bounds() Bounds { return p.cfg.Bounds }

// Plan places the goal relative to start and the distractors around the goal.
// Errors wrapping ErrPlacementDegraded are informational; the layout is complete.
func (p *Planner) Plan(start Point, cond TrialCondition) (Layout, error) {
	area := p.cfg.Bounds.Inset(cond.TargetSize / 2)
	minSep := math.Max(p.cfg.MinSeparation, cond.TargetSize)

	var (
		goal    Point
		goalErr error
	)
	switch p.cfg.GoalMode {
	case GoalUniform:
		goal, goalErr = SampleGoal(p.rng, area, []Point{start}, minSep, p.cfg.GoalAttempts)
	default:
		goal, goalErr = SampleGoalAtAmplitude(p.rng, start, cond.Amplitude, area, p.cfg.GoalAttempts)
	}

	base := cond.WidthRatio * cond.TargetSize
	offsets := OffsetRange{Min: base, Max: base * (1 + p.cfg.OffsetJitter)}
	distractors, distErr := SampleDistractors(p.rng, goal, p.cfg.Distractors, area, offsets, minSep, p.cfg.DistractorAttempts)

	err := errors.Join(goalErr, distErr)
	return Layout{
		Goal:        goal,
		Distractors: distractors,
		Degraded:    DegradedCount(err),
	}, err
}
