package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasim/internal/terrain"
)

func TestSettingsFlagCollectsPairs(t *testing.T) {
	s := settings{}
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.Var(s, "set", "")
	require.NoError(t, fs.Parse([]string{"-set", "continents=6", "-set", "erode_speed=0.4", "-set", "view="}))
	assert.Equal(t, settings{"continents": "6", "erode_speed": "0.4", "view": ""}, s)
	assert.Equal(t, "continents=6,erode_speed=0.4,view=", s.String())

	assert.Error(t, s.Set("continents"))
	assert.Error(t, s.Set("=3"))
}

func TestSweepConfig(t *testing.T) {
	cfg, err := sweepConfig(4, 80, 40, "continents", settings{"continents": "3", "droplets": "25"})
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
	assert.Equal(t, 3, cfg.Continents)
	assert.Equal(t, 25, cfg.Erosion.Droplets)
	assert.Equal(t, terrain.GeneratorContinents, cfg.Generator)

	_, err = sweepConfig(-1, 80, 40, "continents", settings{})
	assert.Error(t, err)

	_, err = sweepConfig(0, 80, 40, "plates", settings{})
	assert.Error(t, err)

	cfg, err = sweepConfig(0, 80, 40, "plates", settings{"generator": "noise"})
	require.NoError(t, err)
	assert.Equal(t, terrain.GeneratorNoise, cfg.Generator)
}
