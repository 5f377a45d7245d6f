package diagram_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2html/internal/diagram"
)

// ---------------------------------------------------------------------------
// TestKey - Content addressing
// ---------------------------------------------------------------------------

func TestKey(t *testing.T) {
	t.Parallel()

	a := diagram.Key("graph TD\n  A-->B\n")
	b := diagram.Key("graph TD\n  A-->B\n")
	c := diagram.Key("graph TD\n  A-->B")

	if a != b {
		t.Errorf("Key not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Error("Key ignores trailing newline; keys must be byte-exact")
	}
	if len(a) != 64 || strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("Key = %q, want 64 lowercase hex chars", a)
	}
}

// ---------------------------------------------------------------------------
// TestDirCache - On-disk layout and create-if-absent
// ---------------------------------------------------------------------------

func TestDirCache(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "static", "mermaid")
	c, err := diagram.NewDirCache(dir)
	if err != nil {
		t.Fatalf("NewDirCache() error = %v", err)
	}

	key := diagram.Key("sequenceDiagram")
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("Get(miss) = ok %v, err %v", ok, err)
	}

	if err := c.Put(key, []byte("<svg>first</svg>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put(key, []byte("<svg>second</svg>")); err != nil {
		t.Fatalf("Put(existing) error = %v", err)
	}

	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get(hit) = ok %v, err %v", ok, err)
	}
	if string(got) != "<svg>first</svg>" {
		t.Errorf("entry = %q, want first write kept", got)
	}

	if _, err := os.Stat(filepath.Join(dir, key+".svg")); err != nil {
		t.Errorf("expected flat {hash}.svg file: %v", err)
	}
	if c.Path(key) != filepath.Join(dir, key+".svg") {
		t.Errorf("Path() = %q", c.Path(key))
	}
}

func TestDirCache_InvalidKey(t *testing.T) {
	t.Parallel()

	c, err := diagram.NewDirCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../../etc/passwd", strings.Repeat("z", 64)} {
		if err := c.Put(key, []byte("x")); !errors.Is(err, diagram.ErrInvalidKey) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, _, err := c.Get(key); !errors.Is(err, diagram.ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestMemoryCache - Copies and create-if-absent
// ---------------------------------------------------------------------------

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	c := diagram.NewMemoryCache()
	svg := []byte("<svg/>")
	if err := c.Put("k", svg); err != nil {
		t.Fatal(err)
	}
	svg[0] = 'X'
	_ = c.Put("k", []byte("other"))

	got, ok, _ := c.Get("k")
	if !ok || string(got) != "<svg/>" {
		t.Errorf("Get(k) = %q, %v; want original bytes", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
