package study

import (
	"fmt"
	"math"
)

// Rand is the entropy source consumed by the generators. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// TrialCondition is one combination of amplitude, target size and
// effective-width-to-width ratio.
type TrialCondition struct {
	Amplitude  float64 `json:"amplitude" yaml:"amplitude"`
	TargetSize float64 `json:"targetSize" yaml:"target_size"`
	WidthRatio float64 `json:"widthRatio" yaml:"width_ratio"`
}

// BlockSequence is the ordered list of conditions for one session.
type BlockSequence []TrialCondition

// GenerateBlock builds the full factorial cross of the condition sets,
// repeated repetitions times, and shuffles it in place.
func GenerateBlock(sizes, amplitudes, widthRatios []float64, repetitions int, rng Rand) (BlockSequence, error) {
	if err := ValidateLevels("sizes", sizes); err != nil {
		return nil, err
	}
	if err := ValidateLevels("amplitudes", amplitudes); err != nil {
		return nil, err
	}
	if err := ValidateLevels("width ratios", widthRatios); err != nil {
		return nil, err
	}
	if repetitions < 1 {
		return nil, fmt.Errorf("%w: repetitions must be at least 1, got %d", ErrInvalidConfiguration, repetitions)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfiguration)
	}

	block := make(BlockSequence, 0, repetitions*len(widthRatios)*len(sizes)*len(amplitudes))
	for i := 0; i < repetitions; i++ {
		for _, ratio := range widthRatios {
			for _, size := range sizes {
				for _, amp := range amplitudes {
					block = append(block, TrialCondition{
						Amplitude:  amp,
						TargetSize: size,
						WidthRatio: ratio,
					})
				}
			}
		}
	}

	Shuffle(block, rng)
	return block, nil
}

// Shuffle permutes s in place (Durstenfeld's Fisher-Yates).
func Shuffle[T any](s []T, rng Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// ValidateLevels reports an ErrInvalidConfiguration when levels is empty or
// holds a value that is not positive and finite. name labels the error.
func ValidateLevels(name string, levels []float64) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no %s given", ErrInvalidConfiguration, name)
	}
	for _, v := range levels {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfiguration, name, v)
		}
	}
	return nil
}
