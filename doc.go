// Package md2html renders blog posts written in Markdown to HTML fragments.
//
// # Quick Start
//
// Create a renderer, render markdown, and close when done:
//
//	r, err := md2html.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	html, err := r.ParseMarkdown(ctx, "# Hello\n\nWorld")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A Renderer is safe for concurrent use. Its first call builds the syntax
// highlighting engine and the goldmark parser; concurrent first calls wait on
// the same setup.
//
// # Rendering Pipeline
//
// Each document goes through these stages:
//
//  1. Line endings are normalized and the byte order mark is dropped
//  2. Goldmark parses the text (GFM, footnotes, math, optional emoji)
//  3. Mermaid code blocks are rendered to SVG, several at a time
//  4. The document is written out with slugged heading ids and
//     chroma-highlighted code blocks
//
// Per-block failures stay local: a code block that cannot be highlighted
// falls back to plain escaped code, and a diagram that cannot be rendered
// shows its source in an error box. A document that cannot be rendered at
// all becomes an error fragment. ParseMarkdown only returns an error when
// setup fails or ctx is done.
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r, err := md2html.NewRenderer(
//	    md2html.WithDualTheme("catppuccin-mocha", "catppuccin-latte"),
//	    md2html.WithDiagramCache("public/static/mermaid"),
//	    md2html.WithTimeout(time.Minute),
//	)
//
// In dual-theme mode, serve the output of Stylesheet next to the pages.
//
// # Diagram Requirements
//
// Diagrams are rendered with the mermaid CLI (mmdc) by default, which must be
// on PATH. WithBrowserDiagrams renders with mermaid.js in headless Chrome
// instead; go-rod downloads a managed Chromium on first run.
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package md2html
