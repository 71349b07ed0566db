package terrain

import (
	"fmt"
	"image/color"
)

// Biome is a coarse surface class derived from height alone.
type Biome uint8

const (
	BiomeSea Biome = iota
	BiomeShoal
	BiomeBeach
	BiomePlains
	BiomeForest
	BiomeScree
	BiomeMountain
	BiomeSnowyMountain
)

var biomeNames = [...]string{
	BiomeSea:           "Sea",
	BiomeShoal:         "Shoal",
	BiomeBeach:         "Beach",
	BiomePlains:        "Plains",
	BiomeForest:        "Forest",
	BiomeScree:         "Scree",
	BiomeMountain:      "Mountain",
	BiomeSnowyMountain: "Snowy mountain",
}

func (b Biome) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return fmt.Sprintf("Biome(%d)", b)
}

// biomeBands are the upper height bounds of each biome below the top one.
var biomeBands = [...]struct {
	upper float64
	biome Biome
}{
	{0.05, BiomeSea},
	{SeaLevel, BiomeShoal},
	{0.4, BiomeBeach},
	{0.75, BiomePlains},
	{1.0, BiomeForest},
	{1.2, BiomeScree},
	{1.5, BiomeMountain},
}

// ClassifyBiome bands a real height into a Biome.
func ClassifyBiome(height float64) Biome {
	for _, b := range biomeBands {
		if height < b.upper {
			return b.biome
		}
	}
	return BiomeSnowyMountain
}

// View selects how heights are turned into display cells.
type View uint8

const (
	ViewHeight View = iota
	ViewHeightColors
	ViewBiomes
)

var viewNames = [...]string{
	ViewHeight:       "Height",
	ViewHeightColors: "Height (colors)",
	ViewBiomes:       "Basic biomes",
}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("View(%d)", v)
}

// Next cycles to the following view.
func (v View) Next() View { return (v + 1) % View(len(viewNames)) }

// ParseView maps a view name as used in configuration to a View.
func ParseView(name string) (View, error) {
	switch name {
	case "height":
		return ViewHeight, nil
	case "height_colors", "colors":
		return ViewHeightColors, nil
	case "biomes", "":
		return ViewBiomes, nil
	}
	return 0, fmt.Errorf("unknown view %q", name)
}

// Display heights are split into heightBands levels between these bounds.
const (
	heightBands     = 32
	displayMinLevel = -0.2
	displayMaxLevel = 1.8
)

// heightBand quantizes a real height into [0, heightBands).
func heightBand(height float64) uint8 {
	t := (height - displayMinLevel) / (displayMaxLevel - displayMinLevel)
	b := int(t * heightBands)
	return uint8(min(max(b, 0), heightBands-1))
}

// displayCell maps a height to a palette index for view.
func displayCell(v View, height float64) uint8 {
	if v == ViewBiomes {
		return uint8(ClassifyBiome(height))
	}
	return heightBand(height)
}

var palettes = [...][]color.RGBA{
	ViewHeight:       buildGrayPalette(),
	ViewHeightColors: buildHeightPalette(),
	ViewBiomes:       buildBiomePalette(),
}

// Palette returns the colors indexed by the display cells of view.
func Palette(v View) []color.RGBA {
	if int(v) < len(palettes) {
		return palettes[v]
	}
	return nil
}

func buildGrayPalette() []color.RGBA {
	p := make([]color.RGBA, heightBands)
	for i := range p {
		g := uint8(i * 255 / (heightBands - 1))
		p[i] = color.RGBA{R: g, G: g, B: g, A: 255}
	}
	return p
}

func buildHeightPalette() []color.RGBA {
	p := make([]color.RGBA, heightBands)
	sea := heightBand(SeaLevel)
	for i := range p {
		if uint8(i) < sea {
			t := float64(i) / float64(sea)
			p[i] = lerp(color.RGBA{R: 10, G: 20, B: 80, A: 255}, color.RGBA{R: 60, G: 130, B: 200, A: 255}, t)
			continue
		}
		t := float64(uint8(i)-sea) / float64(heightBands-1-int(sea))
		switch {
		case t < 0.5:
			p[i] = lerp(color.RGBA{R: 70, G: 150, B: 70, A: 255}, color.RGBA{R: 140, G: 120, B: 70, A: 255}, t*2)
		default:
			p[i] = lerp(color.RGBA{R: 140, G: 120, B: 70, A: 255}, color.RGBA{R: 245, G: 245, B: 250, A: 255}, (t-0.5)*2)
		}
	}
	return p
}

func buildBiomePalette() []color.RGBA {
	return []color.RGBA{
		BiomeSea:           {R: 20, G: 50, B: 120, A: 255},
		BiomeShoal:         {R: 50, G: 110, B: 170, A: 255},
		BiomeBeach:         {R: 220, G: 205, B: 140, A: 255},
		BiomePlains:        {R: 110, G: 170, B: 80, A: 255},
		BiomeForest:        {R: 40, G: 110, B: 55, A: 255},
		BiomeScree:         {R: 130, G: 125, B: 115, A: 255},
		BiomeMountain:      {R: 95, G: 90, B: 90, A: 255},
		BiomeSnowyMountain: {R: 240, G: 240, B: 245, A: 255},
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
