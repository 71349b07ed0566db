package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasim/internal/core"
)

func TestControlTargetClamps(t *testing.T) {
	s := newControlStates([]core.ParameterControl{
		{Key: "inertia", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
	})[0]
	_, ok := s.target(1)
	assert.False(t, ok, "no value loaded yet")

	s.refresh(core.FloatParam("inertia", "Inertia", 0.98), true)
	require.True(t, s.hasValue)
	assert.Equal(t, "0.98", s.value)

	v, ok := s.target(1)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	s.set(1)
	_, ok = s.target(1)
	assert.False(t, ok, "already at the maximum")
	v, ok = s.target(-1)
	assert.True(t, ok)
	assert.InDelta(t, 0.95, v, 1e-12)
}

func TestIntControlStepsAndFormats(t *testing.T) {
	s := newControlStates([]core.ParameterControl{
		{Key: "droplets", Type: core.ParamTypeInt, Step: 64, Min: 1, HasMin: true},
	})[0]
	s.refresh(core.IntParam("droplets", "Droplets", 40), true)
	assert.Equal(t, 40, s.intValue)
	assert.Equal(t, "40", s.value)

	v, ok := s.target(-1)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, _ = s.target(1)
	assert.Equal(t, 104.0, v)

	s.refresh(core.TextParam("droplets", "Droplets", "many"), true)
	assert.False(t, s.hasValue)
	assert.Equal(t, "--", s.value)
}

func TestRefreshMissingParameter(t *testing.T) {
	s := newControlStates([]core.ParameterControl{{Key: "x", Type: core.ParamTypeFloat}})[0]
	s.refresh(core.Parameter{}, false)
	assert.False(t, s.hasValue)
	assert.Equal(t, 0.05, s.step())
}

func TestReadouts(t *testing.T) {
	snap := core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "World", Params: []core.Parameter{core.UintParam("tick", "Tick", 12)}},
		{Name: "Heights", Params: []core.Parameter{core.FloatParam("max", "Max", 1.23456), core.TextParam("v", "View", "biomes")}},
	}}
	assert.Equal(t, []string{"Max: 1.235", "View: biomes"}, readouts(snap, "Heights"))
	assert.Nil(t, readouts(snap, "Missing"))
	assert.Contains(t, indexParameters(snap), "tick")
}
