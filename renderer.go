package md2html

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-md2html/internal/diagram"
	"github.com/alnah/go-md2html/internal/highlight"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// markdownConverter is the part of pipeline.Markdown the Renderer drives.
type markdownConverter interface {
	Convert(ctx context.Context, content string) (string, error)
	DiagramSources(content string) []string
}

// Compile-time interface implementation checks.
var (
	_ markdownConverter        = (*pipeline.Markdown)(nil)
	_ pipeline.Highlighter     = (*highlight.Engine)(nil)
	_ pipeline.DiagramRenderer = (*diagram.Renderer)(nil)
	_ DiagramBackend           = (*diagram.CLIBackend)(nil)
	_ DiagramBackend           = (*diagram.Pool)(nil)
)

// Renderer converts markdown documents to HTML fragments.
// Create with NewRenderer, use ParseMarkdown for conversion, and Close when done.
type Renderer struct {
	cfg      rendererConfig
	logger   *slog.Logger
	provider *highlight.Provider
	backend  DiagramBackend
	diagrams *diagram.Renderer
	cache    diagram.Cache

	// newMarkdown builds the converter once the engine exists.
	newMarkdown func(pipeline.Options) markdownConverter

	group singleflight.Group
	mu    sync.Mutex
	md    markdownConverter
}

// NewRenderer creates a Renderer. The highlighting engine and the parser are
// built on first use, not here.
// Returns error if the diagram cache directory cannot be created.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg: rendererConfig{
			timeout:    DefaultTimeout,
			darkTheme:  highlight.DefaultDarkTheme,
			lightTheme: highlight.DefaultLightTheme,
		},
		newMarkdown: func(o pipeline.Options) markdownConverter {
			return pipeline.New(o)
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.cfg.logger
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.cfg.concurrency <= 0 {
		r.cfg.concurrency = ResolvePoolSize(0)
	}

	if r.provider == nil {
		hl := highlight.DefaultConfig()
		hl.DarkTheme = r.cfg.darkTheme
		hl.LightTheme = r.cfg.lightTheme
		if r.cfg.languages != nil {
			hl.Languages = r.cfg.languages
		}
		r.provider = highlight.NewProvider(hl)
	}

	if r.cfg.cacheDir != "" {
		dc, err := diagram.NewDirCache(r.cfg.cacheDir)
		if err != nil {
			return nil, err
		}
		r.cache = dc
	} else {
		r.cache = diagram.NewMemoryCache()
	}

	r.backend = r.cfg.backend
	if r.backend == nil {
		r.backend = r.defaultBackend()
	}

	r.diagrams = diagram.NewRenderer(diagram.Config{
		Backend:   r.backend,
		Cache:     r.cache,
		Embed:     r.cfg.embed,
		URLPrefix: r.cfg.urlPrefix,
		Logger:    r.logger,
	})

	return r, nil
}

// defaultBackend builds the mmdc backend, or a browser pool when a mermaid
// script was configured.
func (r *Renderer) defaultBackend() DiagramBackend {
	if r.cfg.script != "" {
		script, timeout := r.cfg.script, r.cfg.timeout
		return diagram.NewPool(r.cfg.concurrency, func() diagram.Backend {
			return &diagram.BrowserBackend{Script: script, Timeout: timeout}
		})
	}
	return &diagram.CLIBackend{
		Command:         r.cfg.mmdc,
		ConfigFile:      r.cfg.mmdcConfig,
		PuppeteerConfig: r.cfg.puppeteer,
		Timeout:         r.cfg.timeout,
	}
}

// setup returns the shared converter, building it on first use.
// Concurrent callers share one build; a failed build is not kept.
func (r *Renderer) setup(ctx context.Context) (markdownConverter, error) {
	if md := r.converter(); md != nil {
		return md, nil
	}

	ch := r.group.DoChan("setup", func() (any, error) {
		if md := r.converter(); md != nil {
			return md, nil
		}
		engine, err := r.provider.Engine(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
		md := r.newMarkdown(pipeline.Options{
			Highlighter:        engine,
			Diagrams:           r.diagrams,
			DiagramConcurrency: r.cfg.concurrency,
			MathMacros:         r.cfg.macros,
			UniqueHeadingIDs:   r.cfg.uniqueIDs,
			Emoji:              r.cfg.emoji,
			Logger:             r.logger,
		})
		r.mu.Lock()
		r.md = md
		r.mu.Unlock()
		return md, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(markdownConverter), nil
	}
}

func (r *Renderer) converter() markdownConverter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.md
}

// ParseMarkdown renders content to an HTML fragment.
// A document that fails to render, including by panicking, yields an error
// fragment and a nil error. A non-nil error means setup failed or ctx is done.
func (r *Renderer) ParseMarkdown(ctx context.Context, content string) (html string, err error) {
	md, err := r.setup(ctx)
	if err != nil {
		return "", err
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "markdown rendering panicked", "panic", rec)
			html, err = pipeline.ErrorFragment(fmt.Sprintf("internal error: %v", rec)), nil
		}
	}()

	out, err := md.Convert(ctx, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.logger.ErrorContext(ctx, "markdown rendering failed", "error", err)
		return pipeline.ErrorFragment(err.Error()), nil
	}
	return out, nil
}

// Stylesheet returns the CSS that colors dual-theme code blocks. It is empty
// in single-theme mode.
func (r *Renderer) Stylesheet(ctx context.Context) (string, error) {
	engine, err := r.provider.Engine(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSetup, err)
	}
	return engine.Stylesheet(), nil
}

// PrerenderResult counts the diagrams seen by PrerenderDiagrams.
type PrerenderResult struct {
	Rendered int
	Cached   int
	Failed   int
}

// PrerenderDiagrams fills the diagram cache with every mermaid block in
// content. Blocks already cached are skipped. Individual failures are logged
// and counted; the returned error is only ever a setup or ctx error.
func (r *Renderer) PrerenderDiagrams(ctx context.Context, content string) (PrerenderResult, error) {
	var res PrerenderResult
	md, err := r.setup(ctx)
	if err != nil {
		return res, err
	}

	for _, source := range md.DiagramSources(content) {
		key, cached, err := r.diagrams.Ensure(ctx, source)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			r.logger.WarnContext(ctx, "diagram prerender failed", "key", key, "error", err)
			res.Failed++
		case cached:
			res.Cached++
		default:
			res.Rendered++
		}
	}
	return res, nil
}

// Close releases diagram backend resources (headless browsers).
func (r *Renderer) Close() error {
	if c, ok := r.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
