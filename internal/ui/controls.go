package ui

import (
	"image"
	"math"
	"strconv"

	"terrasim/internal/core"
)

type controlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	hasValue   bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

func newControlStates(controls []core.ParameterControl) []controlState {
	states := make([]controlState, len(controls))
	for i, ctrl := range controls {
		states[i] = controlState{control: ctrl, value: "--"}
	}
	return states
}

func (s *controlState) step() float64 {
	switch s.control.Type {
	case core.ParamTypeInt:
		return max(math.Round(s.control.Step), 1)
	default:
		if s.control.Step <= 0 {
			return 0.05
		}
		return s.control.Step
	}
}

// target returns the clamped value one step in direction and whether it
// differs from the current value.
func (s *controlState) target(direction int) (float64, bool) {
	if !s.hasValue || direction == 0 {
		return 0, false
	}
	next := s.control.Clamp(s.floatValue + float64(direction)*s.step())
	if s.control.Type == core.ParamTypeInt {
		next = math.Round(next)
	}
	return next, math.Abs(next-s.floatValue) >= 1e-9
}

// refresh loads the displayed value from param; ok is false when the
// simulation no longer reports the key.
func (s *controlState) refresh(param core.Parameter, ok bool) {
	s.hasValue = false
	s.value = "--"
	if !ok {
		return
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		parsed, err := strconv.Atoi(param.Value)
		if err != nil {
			return
		}
		s.set(float64(parsed))
	case core.ParamTypeFloat:
		parsed, err := strconv.ParseFloat(param.Value, 64)
		if err != nil {
			return
		}
		s.set(parsed)
	}
}

func (s *controlState) set(v float64) {
	s.hasValue = true
	s.floatValue = v
	if s.control.Type == core.ParamTypeInt {
		s.intValue = int(v)
		s.value = strconv.Itoa(s.intValue)
		return
	}
	s.value = formatFloat(s.step(), v)
}

func formatFloat(step, value float64) string {
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

func indexParameters(snapshot core.ParameterSnapshot) map[string]core.Parameter {
	out := map[string]core.Parameter{}
	for _, group := range snapshot.Groups {
		for _, param := range group.Params {
			out[param.Key] = param
		}
	}
	return out
}

// readouts formats the parameters of the named group as "Label: value"
// lines, shortening long floats.
func readouts(snapshot core.ParameterSnapshot, group string) []string {
	for _, g := range snapshot.Groups {
		if g.Name != group {
			continue
		}
		lines := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			value := p.Value
			if p.Type == core.ParamTypeFloat {
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					value = strconv.FormatFloat(f, 'f', 3, 64)
				}
			}
			lines = append(lines, p.Label+": "+value)
		}
		return lines
	}
	return nil
}
