package md2html

import (
	"context"
	"log/slog"
	"time"

	"github.com/alnah/go-md2html/internal/diagram"
)

// DefaultTimeout bounds a single diagram render when no timeout is specified.
const DefaultTimeout = 30 * time.Second

// DiagramBackend turns mermaid source into a raw SVG document.
// Implementations that also implement io.Closer are closed by Renderer.Close.
type DiagramBackend interface {
	Render(ctx context.Context, source string) ([]byte, error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout     time.Duration
	logger      *slog.Logger
	darkTheme   string
	lightTheme  string
	languages   []string
	cacheDir    string
	backend     DiagramBackend
	mmdc        string
	mmdcConfig  string
	puppeteer   string
	script      string
	concurrency int
	embed       diagram.Embed
	urlPrefix   string
	macros      map[string]string
	uniqueIDs   bool
	emoji       bool
}

// WithTimeout sets the timeout of one diagram render.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2html: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithLogger sets the logger for per-block warnings. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.cfg.logger = l
	}
}

// WithTheme highlights code with a single chroma style, inlining its colors.
func WithTheme(name string) Option {
	return func(r *Renderer) {
		r.cfg.darkTheme = name
		r.cfg.lightTheme = ""
	}
}

// WithDualTheme highlights code with class-based markup whose colors follow
// the reader's color scheme. Serve Stylesheet alongside the pages.
func WithDualTheme(dark, light string) Option {
	return func(r *Renderer) {
		r.cfg.darkTheme = dark
		r.cfg.lightTheme = light
	}
}

// WithLanguages replaces the set of languages the highlighter loads.
// Code blocks in any other language are rendered as plain code.
func WithLanguages(langs ...string) Option {
	return func(r *Renderer) {
		r.cfg.languages = append([]string(nil), langs...)
	}
}

// WithDiagramCache stores rendered diagrams as {hash}.svg files in dir.
// Without it, diagrams are cached in memory for the Renderer's lifetime.
func WithDiagramCache(dir string) Option {
	return func(r *Renderer) {
		r.cfg.cacheDir = dir
	}
}

// WithMermaidCLI configures the mmdc backend. Empty arguments keep defaults:
// command "mmdc" from PATH and no config files.
func WithMermaidCLI(command, configFile, puppeteerConfig string) Option {
	return func(r *Renderer) {
		r.cfg.mmdc = command
		r.cfg.mmdcConfig = configFile
		r.cfg.puppeteer = puppeteerConfig
		r.cfg.script = ""
		r.cfg.backend = nil
	}
}

// WithBrowserDiagrams renders diagrams with mermaid.js in headless Chrome.
// script is a path or URL to mermaid's browser bundle. One browser is started
// per concurrent render, up to the diagram concurrency.
func WithBrowserDiagrams(script string) Option {
	return func(r *Renderer) {
		r.cfg.script = script
		r.cfg.backend = nil
	}
}

// WithDiagramBackend renders diagrams with a custom backend.
func WithDiagramBackend(b DiagramBackend) Option {
	return func(r *Renderer) {
		r.cfg.backend = b
	}
}

// WithDiagramConcurrency bounds how many diagrams of one document render at
// once. Defaults to ResolvePoolSize(0).
func WithDiagramConcurrency(n int) Option {
	return func(r *Renderer) {
		r.cfg.concurrency = n
	}
}

// WithObjectEmbed references each diagram as {prefix}/{hash}.svg through an
// <object> element instead of inlining the SVG. The cache directory must be
// served at prefix.
func WithObjectEmbed(prefix string) Option {
	return func(r *Renderer) {
		r.cfg.embed = diagram.EmbedObject
		r.cfg.urlPrefix = prefix
	}
}

// WithMathMacros replaces the TeX macros expanded inside math. An empty map
// disables expansion.
func WithMathMacros(macros map[string]string) Option {
	return func(r *Renderer) {
		r.cfg.macros = make(map[string]string, len(macros))
		for k, v := range macros {
			r.cfg.macros[k] = v
		}
	}
}

// WithUniqueHeadingIDs suffixes repeated heading ids within a document with
// -2, -3, and so on. By default repeated headings share an id.
func WithUniqueHeadingIDs() Option {
	return func(r *Renderer) {
		r.cfg.uniqueIDs = true
	}
}

// WithEmoji replaces :shortcodes: with emoji characters.
func WithEmoji() Option {
	return func(r *Renderer) {
		r.cfg.emoji = true
	}
}
