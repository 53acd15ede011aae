package study

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetPool_SpawnAndClassify(t *testing.T) {
	pool := NewTargetPool()
	start := pool.SpawnStart(Point{X: 1, Y: 2}, 30)
	assert.Equal(t, KindStart, start.Kind)
	assert.Equal(t, StateIdle, start.State)

	kind, err := pool.Classify(start.ID)
	require.NoError(t, err)
	assert.Equal(t, KindStart, kind)

	pool.Clear()
	trial := pool.SpawnTrial(Point{X: 10, Y: 10}, []Point{{X: 20, Y: 10}, {X: 0, Y: 10}}, 30)
	require.Len(t, trial, 3)
	assert.Equal(t, KindGoal, trial[0].Kind)
	assert.Equal(t, KindDistractor, trial[1].Kind)
	assert.Equal(t, KindDistractor, trial[2].Kind)
	assert.Equal(t, 1, pool.Count(KindGoal))
	assert.Equal(t, 2, pool.Count(KindDistractor))
	assert.Zero(t, pool.Count(KindStart))

	// IDs from a cleared phase are never reused.
	_, err = pool.Classify(start.ID)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	for _, tg := range trial {
		assert.NotEqual(t, start.ID, tg.ID)
	}
}

func TestTargetPool_ClearIsIdempotent(t *testing.T) {
	pool := NewTargetPool()
	pool.SpawnTrial(Point{}, []Point{{X: 1}}, 5)

	pool.Clear()
	assert.Zero(t, pool.Len())
	assert.Empty(t, pool.Targets())

	pool.Clear()
	assert.Zero(t, pool.Len())
	assert.Empty(t, pool.Targets())
}

func TestTargetPool_HoverDoesNotAffectSelected(t *testing.T) {
	pool := NewTargetPool()
	tg := pool.SpawnStart(Point{}, 10)

	require.NoError(t, pool.HoverEnter(tg.ID))
	got, _ := pool.Get(tg.ID)
	assert.Equal(t, StateHovered, got.State)

	require.NoError(t, pool.HoverExit(tg.ID))
	got, _ = pool.Get(tg.ID)
	assert.Equal(t, StateIdle, got.State)

	require.NoError(t, pool.SetState(tg.ID, StateSelected))
	require.NoError(t, pool.HoverEnter(tg.ID))
	require.NoError(t, pool.HoverExit(tg.ID))
	got, _ = pool.Get(tg.ID)
	assert.Equal(t, StateSelected, got.State)

	assert.ErrorIs(t, pool.SetState(tg.ID, StateSelected), ErrAlreadySelected)
}

func TestTargetPool_Select(t *testing.T) {
	pool := NewTargetPool()
	spawned := pool.SpawnTrial(Point{X: 5}, []Point{{X: 50}}, 10)

	kind, err := pool.Select(spawned[1].ID)
	require.NoError(t, err)
	assert.Equal(t, KindDistractor, kind)

	_, err = pool.Select(spawned[1].ID)
	assert.ErrorIs(t, err, ErrAlreadySelected)
	_, err = pool.Select(99)
	assert.ErrorIs(t, err, ErrUnknownTarget)

	// Selected targets stay until the next Clear.
	assert.Equal(t, 2, pool.Len())
	pool.Clear()
	_, err = pool.Select(spawned[0].ID)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestTargetPool_UnknownTarget(t *testing.T) {
	pool := NewTargetPool()
	assert.ErrorIs(t, pool.HoverEnter(99), ErrUnknownTarget)
	assert.ErrorIs(t, pool.SetState(99, StateSelected), ErrUnknownTarget)
	_, ok := pool.Get(99)
	assert.False(t, ok)
}

func TestTargetKind_String(t *testing.T) {
	assert.Equal(t, "start", KindStart.String())
	assert.Equal(t, "goal", KindGoal.String())
	assert.Equal(t, "distractor", KindDistractor.String())
	assert.Equal(t, "TargetKind(9)", TargetKind(9).String())
	assert.Equal(t, "selected", StateSelected.String())
}

func TestTarget_JSONUsesNames(t *testing.T) {
	in := Target{ID: 3, Position: Point{X: 1, Y: 2}, Size: 40, Kind: KindGoal, State: StateHovered}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"goal"`)
	assert.Contains(t, string(data), `"state":"hovered"`)

	var out Target
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"wall"}`), &out))
}
