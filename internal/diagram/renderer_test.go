package diagram_test

// Notes:
// - fakeBackend stands in for mmdc; it counts calls so cache hits are
//   observable without a subprocess.

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-md2html/internal/diagram"
)

type fakeBackend struct {
	calls atomic.Int32
	delay time.Duration
	svg   string
	err   error
}

func (f *fakeBackend) Render(ctx context.Context, source string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.svg != "" {
		return []byte(f.svg), nil
	}
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg"><text>` + source + `</text></svg>`), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// TestRenderer_CacheHit - Backend runs once per source
// ---------------------------------------------------------------------------

func TestRenderer_CacheHit(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	r := diagram.NewRenderer(diagram.Config{Backend: backend, Logger: quietLogger()})
	ctx := context.Background()

	first := r.Render(ctx, "graph TD; A-->B")
	second := r.Render(ctx, "graph TD; A-->B")

	if got := backend.calls.Load(); got != 1 {
		t.Fatalf("backend calls = %d, want 1", got)
	}
	if first != second {
		t.Error("cached render differs from first render")
	}
	for _, want := range []string{`<div class="mermaid-container">`, `class="mermaid-diagram"`, "prefers-color-scheme: dark"} {
		if !strings.Contains(first, want) {
			t.Errorf("Render() missing %q:\n%s", want, first)
		}
	}

	r.Render(ctx, "graph TD; A-->C")
	if got := backend.calls.Load(); got != 2 {
		t.Errorf("backend calls after new source = %d, want 2", got)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_SharedDirCache - Second renderer reuses disk entries
// ---------------------------------------------------------------------------

func TestRenderer_SharedDirCache(t *testing.T) {
	t.Parallel()

	cache, err := diagram.NewDirCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := &fakeBackend{}
	diagram.NewRenderer(diagram.Config{Backend: first, Cache: cache, Logger: quietLogger()}).
		Render(context.Background(), "pie\n  \"a\": 1\n")

	second := &fakeBackend{}
	key, cached, err := diagram.NewRenderer(diagram.Config{Backend: second, Cache: cache, Logger: quietLogger()}).
		Ensure(context.Background(), "pie\n  \"a\": 1\n")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !cached {
		t.Error("Ensure() cached = false, want true")
	}
	if second.calls.Load() != 0 {
		t.Error("second renderer invoked its backend despite a disk hit")
	}
	if key != diagram.Key("pie\n  \"a\": 1\n") {
		t.Errorf("Ensure() key = %s", key)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_ConcurrentSameSource - In-process coalescing
// ---------------------------------------------------------------------------

func TestRenderer_ConcurrentSameSource(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{delay: 50 * time.Millisecond}
	r := diagram.NewRenderer(diagram.Config{Backend: backend, Logger: quietLogger()})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Render(context.Background(), "flowchart LR; X-->Y")
		}()
	}
	wg.Wait()

	if got := backend.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_CancelledCallerDoesNotFailOthers - Detached shared render
// ---------------------------------------------------------------------------

func TestRenderer_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	const source = "flowchart LR; A-->B"
	backend := &fakeBackend{delay: 200 * time.Millisecond}
	r := diagram.NewRenderer(diagram.Config{Backend: backend, Logger: quietLogger()})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, _, err := r.Ensure(ctxA, source)
		errA <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for backend.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("backend never started")
		}
		time.Sleep(time.Millisecond)
	}

	gotB := make(chan string, 1)
	go func() {
		gotB <- r.Render(context.Background(), source)
	}()
	time.Sleep(20 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("cancelled caller still waiting on the shared render")
	}

	html := <-gotB
	if strings.Contains(html, "diagram-error") {
		t.Fatalf("waiting caller got an error fragment:\n%s", html)
	}
	if !strings.Contains(html, `class="mermaid-diagram"`) {
		t.Errorf("waiting caller missing diagram:\n%s", html)
	}
	if got := backend.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_Failure - Error fragment with escaped source
// ---------------------------------------------------------------------------

func TestRenderer_Failure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend diagram.Backend
	}{
		{name: "backend error", backend: &fakeBackend{err: diagram.ErrRender}},
		{name: "invalid svg", backend: &fakeBackend{svg: "Parse error on line 1"}},
		{name: "no backend", backend: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			r := diagram.NewRenderer(diagram.Config{
				Backend: tt.backend,
				Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
			})

			source := `graph TD; A["<b>&"]-->`
			out := r.Render(context.Background(), source)

			if !strings.Contains(out, `class="diagram-error"`) {
				t.Errorf("Render() = %s, want error container", out)
			}
			if !strings.Contains(out, `A[&#34;&lt;b&gt;&amp;&#34;]--&gt;`) {
				t.Errorf("Render() does not contain escaped source: %s", out)
			}
			if strings.Contains(out, "<b>") {
				t.Error("raw source leaked into output")
			}
			if !strings.Contains(logs.String(), "diagram render failed") {
				t.Errorf("failure not logged: %q", logs.String())
			}
		})
	}
}

func TestRenderer_FailureNotCached(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{err: errors.New("exit status 1")}
	r := diagram.NewRenderer(diagram.Config{Backend: backend, Logger: quietLogger()})

	r.Render(context.Background(), "bad")
	r.Render(context.Background(), "bad")
	if got := backend.calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2 (failures are retried)", got)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_ObjectEmbed - Reference to cached asset
// ---------------------------------------------------------------------------

func TestRenderer_ObjectEmbed(t *testing.T) {
	t.Parallel()

	r := diagram.NewRenderer(diagram.Config{
		Backend:   &fakeBackend{},
		Embed:     diagram.EmbedObject,
		URLPrefix: "/static/mermaid/",
		Logger:    quietLogger(),
	})

	source := "graph LR; a-->b"
	out := r.Render(context.Background(), source)
	want := `data="/static/mermaid/` + diagram.Key(source) + `.svg"`
	if !strings.Contains(out, want) {
		t.Errorf("Render() = %s, want %s", out, want)
	}
	if strings.Contains(out, "<svg") {
		t.Error("object embed should not inline the SVG")
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_CustomPalette - DarkCSS override
// ---------------------------------------------------------------------------

func TestRenderer_CustomPalette(t *testing.T) {
	t.Parallel()

	r := diagram.NewRenderer(diagram.Config{
		Backend: &fakeBackend{svg: `<?xml version="1.0"?><svg><g/></svg>`},
		DarkCSS: ".custom { fill: red; }",
		Logger:  quietLogger(),
	})

	out := r.Render(context.Background(), "x")
	if !strings.Contains(out, ".custom { fill: red; }") {
		t.Errorf("custom palette missing: %s", out)
	}
	if strings.Contains(out, "<?xml") {
		t.Error("inline embed kept the XML prolog")
	}
}
