package viz

import (
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette maps normalized intensities in [0, 1] to colors by linear
// interpolation between its stops.
type Palette struct {
	Name  string
	Stops []lipgloss.Color
}

var (
	PaletteInferno = Palette{
		Name:  "inferno",
		Stops: []lipgloss.Color{"#000004", "#420a68", "#932667", "#dd513a", "#fca50a", "#fcffa4"},
	}

	PaletteViridis = Palette{
		Name:  "viridis",
		Stops: []lipgloss.Color{"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	}

	PaletteGray = Palette{
		Name:  "gray",
		Stops: []lipgloss.Color{"#000000", "#ffffff"},
	}

	PaletteOcean = Palette{
		Name:  "ocean",
		Stops: []lipgloss.Color{"#001133", "#0066cc", "#00ccff", "#e0ffff"},
	}

	Palettes = []Palette{PaletteInferno, PaletteViridis, PaletteGray, PaletteOcean}
)

// GetPalette returns a palette by name, falling back to inferno.
func GetPalette(name string) Palette {
	for _, p := range Palettes {
		if p.Name == name {
			return p
		}
	}
	return PaletteInferno
}

func PaletteNames() []string {
	names := make([]string, len(Palettes))
	for i, p := range Palettes {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Color returns the color at v, clamped to [0, 1].
func (p Palette) Color(v float64) lipgloss.Color {
	if len(p.Stops) == 0 {
		return lipgloss.Color("#ffffff")
	}
	if len(p.Stops) == 1 || math.IsNaN(v) || v <= 0 {
		return p.Stops[0]
	}
	if v >= 1 {
		return p.Stops[len(p.Stops)-1]
	}

	pos := v * float64(len(p.Stops)-1)
	i := int(pos)
	t := pos - float64(i)
	sr, sg, sb := parseHex(string(p.Stops[i]))
	er, eg, eb := parseHex(string(p.Stops[i+1]))
	lerp := func(a, b int) int { return int(math.Round(float64(a) + t*float64(b-a))) }
	return lipgloss.Color(hexColor(lerp(sr, er), lerp(sg, eg), lerp(sb, eb)))
}
