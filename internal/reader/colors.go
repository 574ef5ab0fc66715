package reader

import "strings"

// Canonical highlight palette. Anything else a caller supplies is kept
// as-is and reported as a custom color.
const (
	ColorYellow = "#ffeb3b"
	ColorGreen  = "#a5d6a7"
	ColorBlue   = "#90caf9"
	ColorRed    = "#ef9a9a"
)

// NormalizeColor lower-cases a hex color and snaps it onto the canonical
// palette when it matches one of the four standard swatches.
func NormalizeColor(hex string) string {
	hex = strings.ToLower(strings.TrimSpace(hex))
	switch hex {
	case ColorYellow, ColorGreen, ColorBlue, ColorRed:
		return hex
	}
	if hex == "" {
		return ColorYellow
	}
	return hex
}

// ColorName maps a hex color to its palette name. Default return is
// "custom" for colors outside the palette.
func ColorName(hex string) string {
	colorNames := map[string]string{
		ColorYellow: "yellow",
		ColorGreen:  "green",
		ColorBlue:   "blue",
		ColorRed:    "red",
	}
	if name, ok := colorNames[strings.ToLower(hex)]; ok {
		return name
	}
	return "custom"
}
