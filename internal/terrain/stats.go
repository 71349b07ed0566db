package terrain

import "math"

// Stats summarizes a height field in real units.
type Stats struct {
	Min, Max     float64
	Mean, StdDev float64
	// LandFraction is the share of cells above SeaLevel.
	LandFraction float64
}

// HeightStats computes Stats over a fixed-point height field.
func HeightStats(heights []int32) Stats {
	if len(heights) == 0 {
		return Stats{}
	}
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum, land := 0.0, 0
	for _, v := range heights {
		h := FromFixed(v)
		sum += h
		s.Min = math.Min(s.Min, h)
		s.Max = math.Max(s.Max, h)
		if h > SeaLevel {
			land++
		}
	}
	n := float64(len(heights))
	s.Mean = sum / n
	s.LandFraction = float64(land) / n
	variance := 0.0
	for _, v := range heights {
		d := FromFixed(v) - s.Mean
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / n)
	return s
}

// LocalMaxima counts distinct positive peaks of a w*h field. A peak is a
// connected plateau of equal values with no 8-neighbor greater than it.
func LocalMaxima(values []int32, w, h int) int {
	seen := make([]bool, len(values))
	var plateau []int
	peaks := 0
	for start, v := range values {
		if v <= 0 || seen[start] {
			continue
		}
		seen[start] = true
		plateau = append(plateau[:0], start)
		peak := true
		for k := 0; k < len(plateau); k++ {
			x, y := plateau[k]%w, plateau[k]/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					switch n := values[j]; {
					case n > v:
						peak = false
					case n == v && !seen[j]:
						seen[j] = true
						plateau = append(plateau, j)
					}
				}
			}
		}
		if peak {
			peaks++
		}
	}
	return peaks
}
