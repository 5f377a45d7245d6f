package diagram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-md2html/internal/assets"
)

// Backend turns mermaid source into a raw SVG document.
type Backend interface {
	Render(ctx context.Context, source string) ([]byte, error)
}

// Embed selects how a rendered diagram is placed in the page.
type Embed int

const (
	// EmbedInline splices the SVG markup into the page.
	EmbedInline Embed = iota
	// EmbedObject references {URLPrefix}/{key}.svg through an <object>.
	// The cache directory must be served at URLPrefix.
	EmbedObject
)

// DefaultURLPrefix is where object-embedded diagrams are served from.
const DefaultURLPrefix = "/mermaid"

// Config configures a Renderer.
type Config struct {
	Backend   Backend
	Cache     Cache        // nil uses a MemoryCache
	DarkCSS   string       // empty uses the built-in mermaid-dark palette
	Embed     Embed        // defaults to EmbedInline
	URLPrefix string       // defaults to DefaultURLPrefix
	Logger    *slog.Logger // nil uses slog.Default()
}

// Renderer renders diagrams through a Backend with content-addressed caching.
// It is safe for concurrent use; concurrent requests for the same source
// share one backend call.
type Renderer struct {
	backend Backend
	cache   Cache
	darkCSS string
	embed   Embed
	prefix  string
	logger  *slog.Logger
	group   singleflight.Group
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg Config) *Renderer {
	r := &Renderer{
		backend: cfg.Backend,
		cache:   cfg.Cache,
		darkCSS: cfg.DarkCSS,
		embed:   cfg.Embed,
		prefix:  strings.TrimRight(cfg.URLPrefix, "/"),
		logger:  cfg.Logger,
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	if r.darkCSS == "" {
		r.darkCSS = assets.MustLoadStyle(assets.StyleMermaidDark)
	}
	if cfg.URLPrefix == "" {
		r.prefix = DefaultURLPrefix
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Render returns HTML for source. Failures are logged and rendered as an
// error fragment containing the escaped source.
func (r *Renderer) Render(ctx context.Context, source string) string {
	key := Key(source)
	svg, _, err := r.svg(ctx, key, source)
	if err != nil {
		r.logger.WarnContext(ctx, "diagram render failed", "key", key[:12], "error", err)
		return ErrorFragment(source)
	}
	return r.wrap(key, svg)
}

// Ensure makes sure source is in the cache and reports whether it was
// already there.
func (r *Renderer) Ensure(ctx context.Context, source string) (key string, cached bool, err error) {
	key = Key(source)
	_, cached, err = r.svg(ctx, key, source)
	return key, cached, err
}

// svg returns the decorated SVG for source, rendering on a cache miss.
func (r *Renderer) svg(ctx context.Context, key, source string) ([]byte, bool, error) {
	if svg, ok, err := r.cache.Get(key); err != nil {
		r.logger.WarnContext(ctx, "diagram cache read failed", "key", key[:12], "error", err)
	} else if ok {
		return svg, true, nil
	}

	if r.backend == nil {
		return nil, false, fmt.Errorf("%w: no backend configured", ErrRender)
	}

	// The backend call is detached from ctx so one caller's cancellation
	// does not fail the others waiting on the same source. The backend's own
	// timeout bounds it; ctx only bounds how long this caller waits.
	fill := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		if svg, ok, _ := r.cache.Get(key); ok {
			return svg, nil
		}
		raw, err := r.backend.Render(fill, source)
		if err != nil {
			return nil, err
		}
		svg, err := Decorate(raw, r.darkCSS)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(key, svg); err != nil {
			r.logger.WarnContext(fill, "diagram cache write failed", "key", key[:12], "error", err)
		}
		return svg, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

// wrap places a decorated SVG in its container.
func (r *Renderer) wrap(key string, svg []byte) string {
	var b strings.Builder
	b.WriteString(`<div class="mermaid-container">`)
	if r.embed == EmbedObject {
		fmt.Fprintf(&b, `<object type="image/svg+xml" data="%s/%s.svg" class="%s" aria-label="diagram"></object>`,
			html.EscapeString(r.prefix), key, RootClass)
	} else {
		b.Write(stripProlog(svg))
	}
	b.WriteString("</div>\n")
	return b.String()
}

// ErrorFragment renders the placeholder shown for a diagram that failed.
func ErrorFragment(source string) string {
	return `<div class="diagram-error" role="alert">` +
		`<p class="diagram-error-title">Diagram could not be rendered</p>` +
		`<pre><code class="language-mermaid">` + html.EscapeString(source) + `</code></pre>` +
		"</div>\n"
}
