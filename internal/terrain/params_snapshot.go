package terrain

import (
	"terrasim/internal/core"
)

// Parameters reports the generation and erosion settings.
func (w *World) Parameters() core.ParameterSnapshot {
	p := w.erosion.Params()
	stats := w.Stats()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", int64(w.w)),
				core.IntParam("h", "Height", int64(w.h)),
				core.UintParam("tick", "Tick", w.tick),
				core.IntParam("view", "View", int64(w.view)),
				core.TextParam("view_name", "View name", w.view.String()),
			},
		},
		{
			Name: "Generation",
			Params: []core.Parameter{
				core.TextParam("generator", "Generator", string(w.cfg.Generator)),
				core.IntParam("continents", "Continents", int64(w.cfg.Continents)),
				core.IntParam("walk_length", "Walk length", int64(w.cfg.WalkLength)),
				core.UintParam("walk_seed", "Walk seed", w.cfg.WalkSeed),
				core.IntParam("seed", "Noise seed", w.cfg.NoiseSeed),
				core.FloatParam("noise_scale", "Noise scale", w.cfg.NoiseScale),
				core.IntParam("octaves", "Noise octaves", int64(w.cfg.NoiseOctaves)),
			},
		},
		{
			Name: "Erosion",
			Params: []core.Parameter{
				core.IntParam("radius", "Brush radius", int64(w.cfg.ErosionRadius)),
				core.IntParam("droplets", "Droplets", int64(w.erosion.Droplets())),
				core.FloatParam("inertia", "Inertia", p.Inertia),
				core.FloatParam("erode_speed", "Erode speed", p.ErodeSpeed),
				core.FloatParam("deposit_speed", "Deposit speed", p.DepositSpeed),
				core.FloatParam("evaporate_speed", "Evaporate speed", p.EvaporateSpeed),
				core.FloatParam("capacity_factor", "Capacity factor", p.CapacityFactor),
				core.FloatParam("gravity", "Gravity", p.Gravity),
				core.IntParam("max_lifetime", "Droplet lifetime", int64(p.MaxLifetime)),
			},
		},
		{
			Name: "Heights",
			Params: []core.Parameter{
				core.FloatParam("min", "Min", stats.Min),
				core.FloatParam("max", "Max", stats.Max),
				core.FloatParam("std_dev", "Std dev", stats.StdDev),
				core.FloatParam("land_fraction", "Land fraction", stats.LandFraction),
			},
		},
	}}
}

// ParameterControls lists the settings that can change while running.
func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "view", Label: "View", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: float64(len(viewNames) - 1), HasMin: true, HasMax: true},
		{Key: "droplets", Label: "Droplets", Type: core.ParamTypeInt, Step: 64, Min: 1, HasMin: true},
		{Key: "max_lifetime", Label: "Droplet lifetime", Type: core.ParamTypeInt, Step: 5, Min: 1, Max: 200, HasMin: true, HasMax: true},
		{Key: "inertia", Label: "Inertia", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "erode_speed", Label: "Erode speed", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "deposit_speed", Label: "Deposit speed", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "evaporate_speed", Label: "Evaporate speed", Type: core.ParamTypeFloat, Step: 0.005, Min: 0, Max: 1, HasMin: true, HasMax: true},
	}
}

// SetIntParameter applies an integer control change.
func (w *World) SetIntParameter(key string, value int) bool {
	p := w.erosion.Params()
	switch key {
	case "view":
		if value < 0 || value >= len(viewNames) {
			return false
		}
		w.SetView(View(value))
		return true
	case "droplets":
		if value < 1 {
			return false
		}
		p.Droplets = value
	case "max_lifetime":
		if value < 1 {
			return false
		}
		p.MaxLifetime = value
	default:
		return false
	}
	return w.setErosion(p)
}

// SetFloatParameter applies a floating point control change.
func (w *World) SetFloatParameter(key string, value float64) bool {
	p := w.erosion.Params()
	switch key {
	case "inertia":
		p.Inertia = value
	case "erode_speed":
		p.ErodeSpeed = value
	case "deposit_speed":
		p.DepositSpeed = value
	case "evaporate_speed":
		p.EvaporateSpeed = value
	default:
		return false
	}
	return w.setErosion(p)
}

func (w *World) setErosion(p ErosionParams) bool {
	if err := w.erosion.SetParams(p); err != nil {
		return false
	}
	w.cfg.Erosion = p
	return true
}
