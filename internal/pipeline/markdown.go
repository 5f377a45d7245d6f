package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options configures a Markdown converter.
type Options struct {
	// Highlighter renders code blocks. Nil renders every block escaped.
	Highlighter Highlighter

	// Diagrams renders diagram fences. Nil leaves them as code blocks.
	Diagrams DiagramRenderer

	// DiagramConcurrency caps diagrams rendered at once per document.
	// Zero uses DefaultDiagramConcurrency.
	DiagramConcurrency int

	// MathMacros is expanded inside math. Nil uses DefaultMathMacros; an
	// empty map disables expansion.
	MathMacros map[string]string

	// UniqueHeadingIDs suffixes repeated heading ids with -2, -3...
	UniqueHeadingIDs bool

	// Emoji converts :shortcodes: to emoji.
	Emoji bool

	Logger *slog.Logger
}

// DefaultDiagramConcurrency returns half the available CPUs, clamped to [1, 8].
func DefaultDiagramConcurrency() int {
	n := runtime.GOMAXPROCS(0) / 2
	return min(max(n, 1), 8)
}

// Markdown converts markdown to HTML. It is safe for concurrent use.
type Markdown struct {
	md       goldmark.Markdown
	diagrams DiagramRenderer
	limit    int
}

// New builds a Markdown converter from opts.
func New(opts Options) *Markdown {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	macros := opts.MathMacros
	if macros == nil {
		macros = DefaultMathMacros
	}
	limit := opts.DiagramConcurrency
	if limit <= 0 {
		limit = DefaultDiagramConcurrency()
	}

	extensions := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
		&mathExtension{macros: macros},
	}
	if opts.Emoji {
		extensions = append(extensions, emoji.New(emoji.WithRenderingMethod(emoji.Unicode)))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&headingIDTransformer{unique: opts.UniqueHeadingIDs}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(), // posts are trusted and may embed raw HTML
			renderer.WithNodeRenderers(
				util.Prioritized(&headingRenderer{}, 100),
				util.Prioritized(&codeBlockRenderer{highlighter: opts.Highlighter, logger: logger}, 100),
				util.Prioritized(diagramBlockRenderer{}, 100),
			),
		),
	)
	return &Markdown{md: md, diagrams: opts.Diagrams, limit: limit}
}

// Convert renders content to an HTML fragment. Diagrams are rendered
// before the document is written. The only errors are a cancelled ctx and
// ErrHTMLConversion.
func (m *Markdown) Convert(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source := []byte(Preprocess(content))
	doc := m.md.Parser().Parse(text.NewReader(source))

	if m.diagrams != nil {
		if err := renderDiagrams(ctx, doc, source, m.diagrams, m.limit); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := m.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

// DiagramSources returns the source of every diagram block in content, in
// document order, exactly as Convert would hand it to the renderer.
func (m *Markdown) DiagramSources(content string) []string {
	source := []byte(Preprocess(content))
	doc := m.md.Parser().Parse(text.NewReader(source))
	fences := diagramFences(doc, source)
	sources := make([]string, len(fences))
	for i, f := range fences {
		sources[i] = string(f.Lines().Value(source))
	}
	return sources
}
