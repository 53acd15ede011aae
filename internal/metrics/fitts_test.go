package metrics

import (
	"math"
	"testing"

	"fitts-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOfDifficulty(t *testing.T) {
	assert.InDelta(t, 3.0, IndexOfDifficulty(350, 50), 1e-12)
	assert.InDelta(t, 1.0, IndexOfDifficulty(100, 100), 1e-12)
	assert.Zero(t, IndexOfDifficulty(100, 0))
}

func TestLinearFit_RecoversLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 120 + 180*x
	}

	fit, err := LinearFit(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 120, fit.Intercept, 1e-9)
	assert.InDelta(t, 180, fit.Slope, 1e-9)
	assert.InDelta(t, 1, fit.R2, 1e-12)
	assert.Equal(t, 5, fit.N)
	assert.InDelta(t, 660, fit.Predict(3), 1e-9)
}

func TestLinearFit_NotEnoughData(t *testing.T) {
	_, err := LinearFit([]float64{1}, []float64{2})
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = LinearFit([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = LinearFit([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func row(cursor string, amp, size, ratio, mt float64, misses int) models.TrialResult {
	return models.TrialResult{CursorType: cursor, Amplitude: amp, TargetSize: size, WidthRatio: ratio, MovementTime: mt, MissedClicks: misses}
}

func TestCalculateConditionStats(t *testing.T) {
	trials := []models.TrialResult{
		row("point", 350, 50, 1, 800, 0),
		row("point", 350, 50, 1, 1000, 2),
		row("point", 100, 100, 1, 400, 0),
	}

	stats := CalculateConditionStats(trials)
	require.Len(t, stats, 2)

	easy, hard := stats[0], stats[1]
	assert.InDelta(t, 1.0, easy.ID, 1e-12)
	assert.Equal(t, 1, easy.Trials)
	assert.InDelta(t, 2.5, easy.Throughput, 1e-9)

	assert.InDelta(t, 3.0, hard.ID, 1e-12)
	assert.Equal(t, 2, hard.Trials)
	assert.InDelta(t, 900, hard.MeanMovementTime, 1e-9)
	assert.InDelta(t, 100, hard.MovementTimeSD, 1e-9)
	assert.InDelta(t, 0.5, hard.ErrorRate, 1e-12)
	assert.InDelta(t, 1.0, hard.MeanMissedClicks, 1e-12)
	assert.InDelta(t, 3/0.9, hard.Throughput, 1e-9)
}

func TestCalculateConditionStats_EffectiveID(t *testing.T) {
	stats := CalculateConditionStats([]models.TrialResult{row("bubble", 300, 50, 2, 500, 0)})
	require.Len(t, stats, 1)
	assert.InDelta(t, math.Log2(300.0/100+1), stats[0].EffectiveID, 1e-12)
}

func TestBuildReports(t *testing.T) {
	var trials []models.TrialResult
	for _, c := range []struct{ amp, size float64 }{{100, 100}, {300, 100}, {700, 100}} {
		id := IndexOfDifficulty(c.amp, c.size)
		trials = append(trials, row("point", c.amp, c.size, 1, 200+150*id, 0))
		trials = append(trials, row("bubble", c.amp, c.size, 1, 100+100*id, 1))
	}

	reports := BuildReports(trials)
	require.Len(t, reports, 2)
	assert.Equal(t, "bubble", reports[0].CursorType)
	assert.Equal(t, "point", reports[1].CursorType)

	point := reports[1]
	assert.Equal(t, 3, point.Trials)
	require.NotNil(t, point.Fit)
	assert.InDelta(t, 200, point.Fit.Intercept, 1e-6)
	assert.InDelta(t, 150, point.Fit.Slope, 1e-6)
	assert.Zero(t, point.ErrorRate)
	assert.InDelta(t, 1.0, reports[0].ErrorRate, 1e-12)
}

func TestBuildReports_SingleConditionHasNoFit(t *testing.T) {
	reports := BuildReports([]models.TrialResult{row("point", 100, 50, 1, 300, 0)})
	require.Len(t, reports, 1)
	assert.Nil(t, reports[0].Fit)
	assert.Empty(t, BuildReports(nil))
}
