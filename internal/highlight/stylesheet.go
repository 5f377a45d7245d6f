package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
)

// tokenVar pairs a token class with its per-theme rendering.
type tokenVar struct {
	class       string
	light, dark chroma.Colour
	bold        bool
	italic      bool
	underline   bool
}

// Stylesheet returns the CSS backing dual-theme markup. Light values live in
// :root, dark values apply under prefers-color-scheme: dark and under a .dark
// ancestor. Single-theme engines inline their colors and return "".
func (e *Engine) Stylesheet() string {
	if e.light == nil {
		return ""
	}

	lightBg := e.light.Get(chroma.Background)
	darkBg := e.dark.Get(chroma.Background)
	lightText := e.lightColour(lightBg.Colour, lightBg.Background)

	vars := e.tokenVars(lightBg, darkBg)

	var b strings.Builder
	v := func(name string) string { return "--" + e.prefix + name }

	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  %s: %s;\n", v("bg"), lightBg.Background)
	fmt.Fprintf(&b, "  %s: %s;\n", v("fg"), lightText)
	for _, tv := range vars {
		fmt.Fprintf(&b, "  %s: %s;\n", v(tv.class), tv.light)
	}
	b.WriteString("}\n")

	darkBlock := func(indent string) {
		fmt.Fprintf(&b, "%s  %s: %s;\n", indent, v("bg"), darkBg.Background)
		fmt.Fprintf(&b, "%s  %s: %s;\n", indent, v("fg"), darkBg.Colour)
		for _, tv := range vars {
			fmt.Fprintf(&b, "%s  %s: %s;\n", indent, v(tv.class), tv.dark)
		}
	}
	b.WriteString("@media (prefers-color-scheme: dark) {\n  :root {\n")
	darkBlock("  ")
	b.WriteString("  }\n}\n")
	b.WriteString(".dark {\n")
	darkBlock("")
	b.WriteString("}\n")

	pre := "." + e.prefix + "chroma"
	fmt.Fprintf(&b, "%s { color: var(%s); background-color: var(%s); }\n", pre, v("fg"), v("bg"))
	fmt.Fprintf(&b, "%s .%sline { display: flex; }\n", pre, e.prefix)
	for _, tv := range vars {
		fmt.Fprintf(&b, "%s .%s%s { color: var(%s);", pre, e.prefix, tv.class, v(tv.class))
		if tv.bold {
			b.WriteString(" font-weight: bold;")
		}
		if tv.italic {
			b.WriteString(" font-style: italic;")
		}
		if tv.underline {
			b.WriteString(" text-decoration: underline;")
		}
		b.WriteString(" }\n")
	}
	return b.String()
}

// tokenVars collects every token class whose rendering differs from plain
// text in either theme. Font attributes are kept only when both themes agree.
func (e *Engine) tokenVars(lightBg, darkBg chroma.StyleEntry) []tokenVar {
	var out []tokenVar
	for tt, class := range chroma.StandardTypes {
		if tt <= 0 || class == "" {
			continue
		}
		l, d := e.light.Get(tt), e.dark.Get(tt)
		lc, dc := l.Colour, d.Colour
		if !lc.IsSet() {
			lc = lightBg.Colour
		}
		if !dc.IsSet() {
			dc = darkBg.Colour
		}
		tv := tokenVar{
			class:     class,
			light:     e.lightColour(lc, lightBg.Background),
			dark:      dc,
			bold:      l.Bold == chroma.Yes && d.Bold == chroma.Yes,
			italic:    l.Italic == chroma.Yes && d.Italic == chroma.Yes,
			underline: l.Underline == chroma.Yes && d.Underline == chroma.Yes,
		}
		plain := lc == lightBg.Colour && dc == darkBg.Colour
		if plain && !tv.bold && !tv.italic && !tv.underline {
			continue
		}
		out = append(out, tv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].class < out[j].class })
	return out
}

// lightColour applies the substitution table, then darkens anything still
// below MinContrast.
func (e *Engine) lightColour(c, bg chroma.Colour) chroma.Colour {
	if sub, ok := e.subs[c.String()]; ok {
		c = sub
	}
	if !bg.IsSet() {
		return c
	}
	return Readable(c, bg, MinContrast)
}
