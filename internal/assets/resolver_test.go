package assets

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestNewAssetResolver - Construction
// ---------------------------------------------------------------------------

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	r, err := NewAssetResolver("")
	if err != nil {
		t.Fatalf("NewAssetResolver(\"\") error = %v", err)
	}
	if r.HasCustomLoader() {
		t.Error("expected no custom loader for empty path")
	}

	r, err = NewAssetResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewAssetResolver(dir) error = %v", err)
	}
	if !r.HasCustomLoader() {
		t.Error("expected custom loader for valid path")
	}

	if _, err := NewAssetResolver("/nonexistent/path/abc123xyz"); !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("NewAssetResolver(missing) error = %v, want ErrInvalidBasePath", err)
	}
}

// ---------------------------------------------------------------------------
// TestAssetResolver_Fallback - Custom first, embedded second
// ---------------------------------------------------------------------------

func TestAssetResolver_Fallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "templates/post.html", "custom post")

	r, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	got, err := r.LoadTemplate(TemplatePost)
	if err != nil || got != "custom post" {
		t.Errorf("LoadTemplate(post) = %q, %v; want custom override", got, err)
	}

	embedded, _ := LoadTemplate(TemplateIndex)
	got, err = r.LoadTemplate(TemplateIndex)
	if err != nil || got != embedded {
		t.Errorf("LoadTemplate(index) should fall back to embedded, err = %v", err)
	}

	if _, err := r.LoadStyle(StyleMermaidDark); err != nil {
		t.Errorf("LoadStyle(mermaid-dark) fallback error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestAssetResolver_ValidationNotFallenBack - Errors other than not-found
// ---------------------------------------------------------------------------

func TestAssetResolver_ValidationNotFallenBack(t *testing.T) {
	t.Parallel()

	r, err := NewAssetResolver(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.LoadStyle("../site"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStyle(../site) error = %v, want ErrInvalidAssetName", err)
	}
}
