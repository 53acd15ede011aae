package study

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func conditionCounts(block BlockSequence) map[TrialCondition]int {
	counts := make(map[TrialCondition]int)
	for _, c := range block {
		counts[c]++
	}
	return counts
}

func TestGenerateBlock_FullFactorial(t *testing.T) {
	sizes := []float64{50, 100}
	amps := []float64{200, 400}
	ratios := []float64{1, 1.5}

	block, err := GenerateBlock(sizes, amps, ratios, 1, newTestRand())
	require.NoError(t, err)
	assert.Len(t, block, 8)

	counts := conditionCounts(block)
	assert.Len(t, counts, 8)
	for _, s := range sizes {
		for _, a := range amps {
			for _, r := range ratios {
				assert.Equal(t, 1, counts[TrialCondition{Amplitude: a, TargetSize: s, WidthRatio: r}])
			}
		}
	}
}

func TestGenerateBlock_Repetitions(t *testing.T) {
	block, err := GenerateBlock([]float64{32}, []float64{256, 512, 768}, []float64{1.33, 2}, 4, newTestRand())
	require.NoError(t, err)
	assert.Len(t, block, 24)
	for cond, n := range conditionCounts(block) {
		assert.Equal(t, 4, n, "condition %+v", cond)
	}
}

func TestGenerateBlock_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []float64
		amps   []float64
		ratios []float64
		reps   int
	}{
		{"no sizes", nil, []float64{1}, []float64{1}, 1},
		{"no amplitudes", []float64{1}, []float64{}, []float64{1}, 1},
		{"no ratios", []float64{1}, []float64{1}, nil, 1},
		{"zero repetitions", []float64{1}, []float64{1}, []float64{1}, 0},
		{"negative repetitions", []float64{1}, []float64{1}, []float64{1}, -3},
		{"non-positive size", []float64{0}, []float64{1}, []float64{1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := GenerateBlock(tt.sizes, tt.amps, tt.ratios, tt.reps, newTestRand())
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Nil(t, block)
		})
	}
}

func TestGenerateBlock_DeterministicForSeed(t *testing.T) {
	a, err := GenerateBlock([]float64{10, 20, 30}, []float64{100, 200}, []float64{1, 2}, 2, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	b, err := GenerateBlock([]float64{10, 20, 30}, []float64{100, 200}, []float64{1, 2}, 2, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestShuffle_IsPermutation(t *testing.T) {
	orig := make([]int, 50)
	for i := range orig {
		orig[i] = i
	}
	shuffled := slices.Clone(orig)
	Shuffle(shuffled, newTestRand())

	assert.NotEqual(t, orig, shuffled)
	sorted := slices.Clone(shuffled)
	slices.Sort(sorted)
	assert.Equal(t, orig, sorted)
}

func TestShuffle_Unbiased(t *testing.T) {
	// Every permutation of three elements should show up about 1/6 of the time.
	rng := newTestRand()
	counts := make(map[[3]int]int)
	const rounds = 60000
	for i := 0; i < rounds; i++ {
		s := []int{0, 1, 2}
		Shuffle(s, rng)
		counts[[3]int{s[0], s[1], s[2]}]++
	}
	require.Len(t, counts, 6)
	for perm, n := range counts {
		assert.InDelta(t, rounds/6, n, rounds/60, "permutation %v", perm)
	}
}
