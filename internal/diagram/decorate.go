package diagram

import (
	"bytes"
	"regexp"
	"strings"
)

// RootClass tags every rendered diagram's root <svg>.
const RootClass = "mermaid-diagram"

// styleMarker identifies an injected palette so decoration is idempotent.
const styleMarker = `<style data-mermaid-theme="dark">`

var (
	svgOpenPattern = regexp.MustCompile(`<svg\b[^>]*>`)
	classPattern   = regexp.MustCompile(`\sclass="([^"]*)"`)
)

// Decorate adds RootClass to the root element and injects darkCSS in a
// <style> block before the closing tag. Returns ErrInvalidSVG if svg has no
// root element or closing tag.
func Decorate(svg []byte, darkCSS string) ([]byte, error) {
	loc := svgOpenPattern.FindIndex(svg)
	if loc == nil {
		return nil, ErrInvalidSVG
	}
	closeAt := bytes.LastIndex(svg, []byte("</svg>"))
	if closeAt < loc[1] {
		return nil, ErrInvalidSVG
	}

	tag := addClass(svg[loc[0]:loc[1]])

	var b bytes.Buffer
	b.Grow(len(svg) + len(tag) + len(darkCSS) + 64)
	b.Write(svg[:loc[0]])
	b.Write(tag)
	b.Write(svg[loc[1]:closeAt])
	if darkCSS != "" && !bytes.Contains(svg, []byte(styleMarker)) {
		b.WriteString("\n")
		b.WriteString(styleMarker)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(darkCSS))
		b.WriteString("\n</style>\n")
	}
	b.Write(svg[closeAt:])
	return b.Bytes(), nil
}

// addClass merges RootClass into the tag's class attribute.
func addClass(tag []byte) []byte {
	m := classPattern.FindSubmatchIndex(tag)
	if m == nil {
		out := make([]byte, 0, len(tag)+len(RootClass)+9)
		out = append(out, `<svg class="`+RootClass+`"`...)
		return append(out, tag[len("<svg"):]...)
	}
	for _, c := range strings.Fields(string(tag[m[2]:m[3]])) {
		if c == RootClass {
			return tag
		}
	}
	out := make([]byte, 0, len(tag)+len(RootClass)+1)
	out = append(out, tag[:m[2]]...)
	out = append(out, RootClass+" "...)
	return append(out, tag[m[2]:]...)
}

// stripProlog drops anything before the root element, such as an XML
// declaration or doctype, for inline embedding.
func stripProlog(svg []byte) []byte {
	if loc := svgOpenPattern.FindIndex(svg); loc != nil {
		return svg[loc[0]:]
	}
	return svg
}
