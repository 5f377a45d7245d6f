// Package diagram renders mermaid diagram source to themed SVG.
//
// Rendering is delegated to a Backend: the mermaid CLI (mmdc) run as a
// subprocess, or mermaid.js evaluated in a headless browser. Output is
// cached by the SHA-256 of the exact source text, so a diagram is rendered
// at most once per cache. Every SVG is tagged with the mermaid-diagram class
// and carries its own dark-mode palette, since SVGs embedded through
// <object> cannot inherit page styles.
//
// Renderer.Render never fails: a diagram that cannot be rendered becomes an
// error fragment showing its escaped source.
package diagram
