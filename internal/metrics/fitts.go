package metrics

import (
	"errors"
	"math"
	"sort"

	"fitts-go/internal/models"
)

// ErrNotEnoughData is returned when a fit needs more distinct samples.
var ErrNotEnoughData = errors.New("not enough data")

// IndexOfDifficulty is the Shannon formulation log2(A/W + 1) in bits.
func IndexOfDifficulty(amplitude, width float64) float64 {
	if width <= 0 {
		return 0
	}
	return math.Log2(amplitude/width + 1)
}

// ConditionStats summarizes every trial of one condition and cursor type.
type ConditionStats struct {
	CursorType  string  `json:"cursorType"`
	Amplitude   float64 `json:"amplitude"`
	TargetSize  float64 `json:"targetSize"`
	WidthRatio  float64 `json:"widthRatio"`
	ID          float64 `json:"id"`
	EffectiveID float64 `json:"effectiveId"`
	Trials      int     `json:"trials"`
	// MeanMovementTime and MovementTimeSD are in milliseconds.
	MeanMovementTime float64 `json:"meanMovementTime"`
	MovementTimeSD   float64 `json:"movementTimeSd"`
	MeanMissedClicks float64 `json:"meanMissedClicks"`
	ErrorRate        float64 `json:"errorRate"`
	// Throughput is ID over mean movement time, in bits per second.
	Throughput float64 `json:"throughput"`
}

// Fit is the least-squares line MT = Intercept + Slope * ID.
type Fit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// Predict returns the fitted movement time for an index of difficulty.
func (f Fit) Predict(id float64) float64 {
	return f.Intercept + f.Slope*id
}

// Report is the analysis of one cursor type.
type Report struct {
	CursorType string           `json:"cursorType"`
	Trials     int              `json:"trials"`
	Conditions []ConditionStats `json:"conditions"`
	Fit        *Fit             `json:"fit,omitempty"`
	// Throughput is the mean of the per-condition throughputs.
	Throughput float64 `json:"throughput"`
	ErrorRate  float64 `json:"errorRate"`
}

type conditionKey struct {
	cursor           string
	amp, size, ratio float64
}

// CalculateConditionStats groups trials by cursor type and condition.
// The result is ordered by cursor, then ID, then width ratio.
func CalculateConditionStats(trials []models.TrialResult) []ConditionStats {
	groups := make(map[conditionKey][]models.TrialResult)
	for _, t := range trials {
		k := conditionKey{t.CursorType, t.Amplitude, t.TargetSize, t.WidthRatio}
		groups[k] = append(groups[k], t)
	}

	stats := make([]ConditionStats, 0, len(groups))
	for k, group := range groups {
		mts := make([]float64, len(group))
		var misses, errTrials int
		for i, t := range group {
			mts[i] = t.MovementTime
			misses += t.MissedClicks
			if t.MissedClicks > 0 {
				errTrials++
			}
		}

		mean := average(mts)
		id := IndexOfDifficulty(k.amp, k.size)
		cs := ConditionStats{
			CursorType:       k.cursor,
			Amplitude:        k.amp,
			TargetSize:       k.size,
			WidthRatio:       k.ratio,
			ID:               id,
			EffectiveID:      IndexOfDifficulty(k.amp, k.size*k.ratio),
			Trials:           len(group),
			MeanMovementTime: mean,
			MovementTimeSD:   standardDeviation(mts, mean),
			MeanMissedClicks: float64(misses) / float64(len(group)),
			ErrorRate:        float64(errTrials) / float64(len(group)),
		}
		if mean > 0 {
			cs.Throughput = id / (mean / 1000)
		}
		stats = append(stats, cs)
	}

	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.CursorType != b.CursorType {
			return a.CursorType < b.CursorType
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.WidthRatio != b.WidthRatio {
			return a.WidthRatio < b.WidthRatio
		}
		return a.Amplitude < b.Amplitude
	})
	return stats
}

// FitMovementTime regresses mean movement time on ID across conditions.
func FitMovementTime(conditions []ConditionStats) (Fit, error) {
	xs := make([]float64, len(conditions))
	ys := make([]float64, len(conditions))
	for i, c := range conditions {
		xs[i] = c.ID
		ys[i] = c.MeanMovementTime
	}
	return LinearFit(xs, ys)
}

// LinearFit computes an ordinary least-squares line through (xs, ys).
func LinearFit(xs, ys []float64) (Fit, error) {
	n := len(xs)
	if n != len(ys) {
		return Fit{}, errors.New("mismatched sample lengths")
	}
	if n < 2 {
		return Fit{}, ErrNotEnoughData
	}

	mx, my := average(xs), average(ys)
	var sxx, sxy, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Fit{}, ErrNotEnoughData
	}

	slope := sxy / sxx
	fit := Fit{Intercept: my - slope*mx, Slope: slope, R2: 1, N: n}
	if syy > 0 {
		fit.R2 = (sxy * sxy) / (sxx * syy)
	}
	return fit, nil
}

// BuildReports analyses trials per cursor type, ordered by cursor name.
func BuildReports(trials []models.TrialResult) []Report {
	byCursor := make(map[string][]ConditionStats)
	var order []string
	for _, cs := range CalculateConditionStats(trials) {
		if _, ok := byCursor[cs.CursorType]; !ok {
			order = append(order, cs.CursorType)
		}
		byCursor[cs.CursorType] = append(byCursor[cs.CursorType], cs)
	}

	reports := make([]Report, 0, len(order))
	for _, cursor := range order {
		conds := byCursor[cursor]
		r := Report{CursorType: cursor, Conditions: conds}

		var tp, errTrials float64
		for _, c := range conds {
			r.Trials += c.Trials
			tp += c.Throughput
			errTrials += c.ErrorRate * float64(c.Trials)
		}
		r.Throughput = tp / float64(len(conds))
		if r.Trials > 0 {
			r.ErrorRate = errTrials / float64(r.Trials)
		}
		if fit, err := FitMovementTime(conds); err == nil {
			r.Fit = &fit
		}
		reports = append(reports, r)
	}
	return reports
}

func average(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func standardDeviation(vs []float64, mean float64) float64 {
	if len(vs) <= 1 {
		return 0
	}
	var sumSquaredDiff float64
	for _, v := range vs {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(vs)))
}
