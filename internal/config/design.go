package config

import (
	"fmt"
	"os"
	"slices"

	"fitts-go/internal/study"

	"gopkg.in/yaml.v3"
)

// Design is the study design file: the condition sets and the layout rules
// shared by every session.
type Design struct {
	Name        string    `yaml:"name"`
	CursorType  string    `yaml:"cursor_type"`
	Sizes       []float64 `yaml:"target_sizes"`
	Amplitudes  []float64 `yaml:"target_amplitudes"`
	WidthRatios []float64 `yaml:"ew_to_w_ratios"`
	Repetitions int       `yaml:"repetitions"`
	StartSize   float64   `yaml:"start_size"`
	Screen      Screen    `yaml:"screen"`
	Placement   Placement `yaml:"placement"`
}

type Screen struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type Placement struct {
	Distractors        int            `yaml:"distractors"`
	MinSeparation      float64        `yaml:"min_separation"`
	OffsetJitter       float64        `yaml:"offset_jitter"`
	GoalMode           study.GoalMode `yaml:"goal_mode"`
	GoalAttempts       int            `yaml:"goal_attempts"`
	DistractorAttempts int            `yaml:"distractor_attempts"`
}

// Cursor types recorded with every trial.
var CursorTypes = []string{"point", "area", "bubble"}

// LoadDesign reads and validates a study design YAML file.
func LoadDesign(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study design: %w", err)
	}
	return ParseDesign(data)
}

// ParseDesign decodes a study design and applies defaults.
func ParseDesign(data []byte) (*Design, error) {
	design := Design{
		CursorType:  "point",
		Repetitions: 1,
		Screen:      Screen{Width: 1920, Height: 1080},
	}
	if err := yaml.Unmarshal(data, &design); err != nil {
		return nil, fmt.Errorf("failed to unmarshal study design YAML: %w", err)
	}
	if err := design.Validate(); err != nil {
		return nil, err
	}
	return &design, nil
}

// Validate runs the checks that block generation and placement would run at
// session creation, so a bad design fails at startup.
func (d *Design) Validate() error {
	if !ValidCursor(d.CursorType) {
		return fmt.Errorf("%w: unknown cursor type %q", study.ErrInvalidConfiguration, d.CursorType)
	}
	if err := study.ValidateLevels("target_sizes", d.Sizes); err != nil {
		return err
	}
	if err := study.ValidateLevels("target_amplitudes", d.Amplitudes); err != nil {
		return err
	}
	if err := study.ValidateLevels("ew_to_w_ratios", d.WidthRatios); err != nil {
		return err
	}
	if d.Repetitions < 1 {
		return fmt.Errorf("%w: repetitions must be at least 1", study.ErrInvalidConfiguration)
	}
	if d.StartSize < 0 {
		return fmt.Errorf("%w: start_size must not be negative", study.ErrInvalidConfiguration)
	}
	return d.PlannerConfig().Validate()
}

// Bounds is the placement area of the design's screen.
func (d *Design) Bounds() study.Bounds {
	return study.ScreenBounds(d.Screen.Width, d.Screen.Height)
}

// TrialCount is the length of a block built from this design.
func (d *Design) TrialCount() int {
	return d.Repetitions * len(d.Sizes) * len(d.Amplitudes) * len(d.WidthRatios)
}

// Block generates a shuffled block for one session.
func (d *Design) Block(rng study.Rand) (study.BlockSequence, error) {
	return study.GenerateBlock(d.Sizes, d.Amplitudes, d.WidthRatios, d.Repetitions, rng)
}

// PlannerConfig maps the placement section onto the core planner settings.
func (d *Design) PlannerConfig() study.PlannerConfig {
	return study.PlannerConfig{
		Bounds:             d.Bounds(),
		Distractors:        d.Placement.Distractors,
		MinSeparation:      d.Placement.MinSeparation,
		OffsetJitter:       d.Placement.OffsetJitter,
		GoalMode:           d.Placement.GoalMode,
		GoalAttempts:       d.Placement.GoalAttempts,
		DistractorAttempts: d.Placement.DistractorAttempts,
	}
}

func ValidCursor(name string) bool {
	return slices.Contains(CursorTypes, name)
}
