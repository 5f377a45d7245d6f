package main

// Notes:
// - mergeFlags: we test that set flags override config and unset flags keep it.
// - rebase: we test relative paths join the site directory, absolute ones do not.
// - defaultDiagramConfigs: we test files next to the site are picked up only
//   when present and not configured.
// - rendererOptions: we test backend selection errors; the options themselves
//   are covered by the md2html package tests.
// - loadSettings: uses t.Chdir and t.Setenv, so it is not parallel.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/diagram"
	"github.com/alnah/go-md2html/internal/highlight"
)

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI values override config values
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("set flags override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		mergeFlags(&siteFlags{
			content: contentFlags{postsDir: "p", output: "dist", drafts: true},
			render:  renderFlags{theme: "monokai", timeout: "5s", uniqueIDs: true, emoji: true},
			workers: 3,
		}, cfg)

		if cfg.Content.PostsDir != "p" || cfg.Output.Dir != "dist" || !cfg.Content.IncludeDrafts {
			t.Errorf("content not merged: %+v %+v", cfg.Content, cfg.Output)
		}
		if cfg.Highlight.Theme != "monokai" || cfg.Highlight.Dual {
			t.Errorf("Highlight = %+v, want single theme monokai", cfg.Highlight)
		}
		if cfg.Diagrams.Timeout != "5s" {
			t.Errorf("Diagrams.Timeout = %q, want 5s", cfg.Diagrams.Timeout)
		}
		if !cfg.Headings.Unique || !cfg.Emoji {
			t.Error("unique ids and emoji should be enabled")
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3", cfg.Workers)
		}
	})

	t.Run("unset flags keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Emoji = true
		cfg.Workers = 8
		mergeFlags(&siteFlags{}, cfg)

		if !cfg.Emoji || cfg.Workers != 8 || !cfg.Highlight.Dual {
			t.Errorf("config changed by empty flags: %+v", cfg)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRebase - Site directory resolution
// ---------------------------------------------------------------------------

func TestRebase(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "cache")
	cfg := config.DefaultConfig()
	cfg.Diagrams.CacheDir = abs
	rebase(cfg, "site")

	if want := filepath.Join("site", "content", "blog"); cfg.Content.PostsDir != want {
		t.Errorf("PostsDir = %q, want %q", cfg.Content.PostsDir, want)
	}
	if want := filepath.Join("site", "public"); cfg.Output.Dir != want {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, want)
	}
	if cfg.Diagrams.CacheDir != abs {
		t.Errorf("absolute CacheDir changed to %q", cfg.Diagrams.CacheDir)
	}
}

// ---------------------------------------------------------------------------
// TestDefaultDiagramConfigs - mmdc config files next to the site
// ---------------------------------------------------------------------------

func TestDefaultDiagramConfigs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mermaidPath := filepath.Join(root, "mermaid.config.json")
	if err := os.WriteFile(mermaidPath, []byte(`{"theme":"neutral"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("picks up existing file only", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		defaultDiagramConfigs(cfg, root)
		if cfg.Diagrams.ConfigFile != mermaidPath {
			t.Errorf("ConfigFile = %q, want %q", cfg.Diagrams.ConfigFile, mermaidPath)
		}
		if cfg.Diagrams.PuppeteerConfig != "" {
			t.Errorf("PuppeteerConfig = %q, want empty without a file", cfg.Diagrams.PuppeteerConfig)
		}
	})

	t.Run("configured value wins", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Diagrams.ConfigFile = "custom.json"
		defaultDiagramConfigs(cfg, root)
		if cfg.Diagrams.ConfigFile != "custom.json" {
			t.Errorf("ConfigFile = %q, want custom.json", cfg.Diagrams.ConfigFile)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDiagramCacheDir - Default cache location
// ---------------------------------------------------------------------------

func TestDiagramCacheDir(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if got, want := diagramCacheDir(cfg), filepath.Join("public", "mermaid"); got != want {
		t.Errorf("diagramCacheDir() = %q, want %q", got, want)
	}

	cfg.Diagrams.CacheDir = "cache"
	if got := diagramCacheDir(cfg); got != "cache" {
		t.Errorf("diagramCacheDir() = %q, want cache", got)
	}
}

// ---------------------------------------------------------------------------
// TestRendererOptions - Backend selection
// ---------------------------------------------------------------------------

func TestRendererOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		backend string
		wantErr error
	}{
		{"default", "", nil},
		{"cli", "cli", nil},
		{"browser upper case", "BROWSER", nil},
		{"unknown", "phantomjs", md2html.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Diagrams.Backend = tt.backend
			cfg.Diagrams.Script = "mermaid.min.js"
			opts, err := rendererOptions(cfg, logger)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("rendererOptions() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(opts) == 0 {
				t.Error("expected options")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWithHint - Actionable hints
// ---------------------------------------------------------------------------

func TestWithHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{"browser connect", diagram.ErrBrowserConnect, true},
		{"renderer not found", fmt.Errorf("render: %w", diagram.ErrRendererNotFound), true},
		{"timeout", diagram.ErrTimeout, true},
		{"unknown theme", highlight.ErrUnknownTheme, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := withHint(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("withHint() lost the wrapped error: %v", got)
			}
			added := got.Error() != tt.err.Error()
			if added != tt.wantHint {
				t.Errorf("hint added = %v, want %v (%q)", added, tt.wantHint, got.Error())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadSettings - Priority: flags > environment > config file > defaults
// ---------------------------------------------------------------------------

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearEnv(t)

	cfgYAML := "site:\n  title: From File\ncontent:\n  postsDir: file-posts\noutput:\n  dir: file-out\n"
	if err := os.WriteFile(filepath.Join(dir, "site.yaml"), []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MD2HTML_OUTPUT_DIR", "env-out")
	t.Setenv("MD2HTML_POSTS_DIR", "env-posts")

	cfg, err := loadSettings(&siteFlags{
		common:  commonFlags{config: "site"},
		content: contentFlags{postsDir: "flag-posts"},
	})
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if cfg.Site.Title != "From File" {
		t.Errorf("Site.Title = %q, want From File", cfg.Site.Title)
	}
	if cfg.Output.Dir != "env-out" {
		t.Errorf("Output.Dir = %q, want env-out", cfg.Output.Dir)
	}
	if cfg.Content.PostsDir != "flag-posts" {
		t.Errorf("Content.PostsDir = %q, want flag-posts", cfg.Content.PostsDir)
	}
}

func TestLoadSettings_MissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	_, err := loadSettings(&siteFlags{common: commonFlags{config: "absent"}})
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Fatalf("loadSettings() error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "absent") {
		t.Errorf("error should name the config: %v", err)
	}
}
