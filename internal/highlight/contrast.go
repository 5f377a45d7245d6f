package highlight

import (
	"fmt"
	"math"
	"strings"

	"github.com/alecthomas/chroma/v2"
)

// MinContrast is the WCAG AA ratio for normal text.
const MinContrast = 4.5

// LatteSubstitutions replaces catppuccin-latte token colors that fall below
// MinContrast against the latte base (#eff1f5) with darker shades of the
// same hue.
var LatteSubstitutions = map[string]string{
	"#fe640b": "#b94808", // peach
	"#179299": "#12777d", // teal
	"#df8e1d": "#976013", // yellow
	"#1e66f5": "#1d62ed", // blue
	"#04a5e5": "#0273a0", // sapphire
	"#dc8a78": "#955d51", // rosewater
	"#40a02b": "#317c21", // green
	"#9ca0b0": "#6a6c77", // overlay0
	"#8c8fa1": "#686b78", // overlay1
}

// substitutionsFor returns the fixed table for a light theme, if one exists.
func substitutionsFor(theme string) map[string]string {
	if strings.EqualFold(theme, "catppuccin-latte") {
		return LatteSubstitutions
	}
	return nil
}

// luminance returns the WCAG relative luminance of c.
func luminance(c chroma.Colour) float64 {
	channel := func(v uint8) float64 {
		s := float64(v) / 255
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(c.Red()) + 0.7152*channel(c.Green()) + 0.0722*channel(c.Blue())
}

// ContrastRatio returns the WCAG contrast ratio between two colors, in [1, 21].
func ContrastRatio(a, b chroma.Colour) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// Readable darkens or lightens fg toward black or white, keeping its hue,
// until it reaches min contrast against bg. Colors that already pass are
// returned unchanged.
func Readable(fg, bg chroma.Colour, min float64) chroma.Colour {
	if ContrastRatio(fg, bg) >= min {
		return fg
	}
	darken := luminance(bg) > 0.5
	r, g, b := float64(fg.Red()), float64(fg.Green()), float64(fg.Blue())
	out := fg
	for step := 0.02; step <= 1; step += 0.02 {
		var nr, ng, nb float64
		if darken {
			nr, ng, nb = r*(1-step), g*(1-step), b*(1-step)
		} else {
			nr, ng, nb = r+(255-r)*step, g+(255-g)*step, b+(255-b)*step
		}
		out = chroma.NewColour(uint8(math.Round(nr)), uint8(math.Round(ng)), uint8(math.Round(nb)))
		if ContrastRatio(out, bg) >= min {
			return out
		}
	}
	return out
}

// parseColour parses a #rrggbb string.
func parseColour(s string) (chroma.Colour, error) {
	c := chroma.ParseColour(s)
	if !c.IsSet() {
		return 0, fmt.Errorf("invalid colour %q", s)
	}
	return c, nil
}
