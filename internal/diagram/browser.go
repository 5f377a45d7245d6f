package diagram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/process"
)

// DefaultMermaidTheme is the mermaid theme used in the browser.
const DefaultMermaidTheme = "default"

// renderScript calls mermaid.render in the page and resolves to the SVG.
const renderScript = `async (source, theme, id) => {
	mermaid.initialize({ startOnLoad: false, theme: theme, securityLevel: "strict" });
	const { svg } = await mermaid.render(id, source);
	return svg;
}`

const blankPage = `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body></body></html>`

// BrowserBackend renders with mermaid.js inside headless Chrome driven by rod.
// The browser starts on first use and is shared by all calls until Close.
type BrowserBackend struct {
	// Script is a path or URL to mermaid's browser bundle.
	Script string

	// Theme is the mermaid theme; DefaultMermaidTheme when empty.
	Theme string

	// Timeout bounds one render; DefaultTimeout when zero.
	Timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	script   string
	seq      int
}

// ensureBrowser lazily launches and connects to the browser.
func (b *BrowserBackend) ensureBrowser() (*rod.Browser, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.script == "" && !fileutil.IsURL(b.Script) {
		data, err := os.ReadFile(b.Script)
		if err != nil {
			return nil, "", fmt.Errorf("%w: loading mermaid script: %v", ErrRender, err)
		}
		b.script = string(data)
	}

	if b.browser != nil {
		return b.browser, b.script, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, "", fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b.launcher = l
	b.browser = browser
	return browser, b.script, nil
}

// Render evaluates mermaid.render for source in a fresh page.
func (b *BrowserBackend) Render(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, inline, err := b.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", ErrRender, err)
	}
	defer page.Close()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := page.Context(ctx).Timeout(timeout)

	if err := p.SetDocumentContent(blankPage); err != nil {
		return nil, b.pageError(ctx, "loading page", err)
	}
	if inline != "" {
		err = p.AddScriptTag("", inline)
	} else {
		err = p.AddScriptTag(b.Script, "")
	}
	if err != nil {
		return nil, b.pageError(ctx, "loading mermaid", err)
	}

	theme := b.Theme
	if theme == "" {
		theme = DefaultMermaidTheme
	}
	res, err := p.Eval(renderScript, source, theme, b.nextID())
	if err != nil {
		return nil, b.pageError(ctx, "mermaid.render", err)
	}

	svg := res.Value.Str()
	if svg == "" {
		return nil, ErrEmptyOutput
	}
	return []byte(svg), nil
}

func (b *BrowserBackend) pageError(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w during %s", ErrTimeout, step)
	}
	return fmt.Errorf("%w: %s: %v", ErrRender, step, err)
}

func (b *BrowserBackend) nextID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return fmt.Sprintf("mermaid-%d", b.seq)
}

// Close shuts the browser down and kills its process group.
func (b *BrowserBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		if pid := b.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// Compile-time interface check.
var _ Backend = (*BrowserBackend)(nil)
