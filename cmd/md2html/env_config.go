package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string        // MD2HTML_CONFIG: config file name or path
	SiteURL     string        // MD2HTML_SITE_URL: absolute site URL
	PostsDir    string        // MD2HTML_POSTS_DIR: blog post sources
	ProjectsDir string        // MD2HTML_PROJECTS_DIR: project sources
	OutputDir   string        // MD2HTML_OUTPUT_DIR: generated site
	CacheDir    string        // MD2HTML_CACHE_DIR: rendered diagram cache
	Mmdc        string        // MD2HTML_MMDC: mermaid CLI binary
	Theme       string        // MD2HTML_THEME: single highlight theme
	Timeout     time.Duration // MD2HTML_TIMEOUT: per-diagram timeout
	Workers     int           // MD2HTML_WORKERS: parallel page workers
}

// knownEnvVars lists valid MD2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2HTML_CONFIG":       true,
	"MD2HTML_CONTAINER":    true,
	"MD2HTML_SITE_URL":     true,
	"MD2HTML_POSTS_DIR":    true,
	"MD2HTML_PROJECTS_DIR": true,
	"MD2HTML_OUTPUT_DIR":   true,
	"MD2HTML_CACHE_DIR":    true,
	"MD2HTML_MMDC":         true,
	"MD2HTML_THEME":        true,
	"MD2HTML_TIMEOUT":      true,
	"MD2HTML_WORKERS":      true,
}

// loadEnvConfig reads configuration from environment variables.
// Invalid durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("MD2HTML_CONFIG"),
		SiteURL:     os.Getenv("MD2HTML_SITE_URL"),
		PostsDir:    os.Getenv("MD2HTML_POSTS_DIR"),
		ProjectsDir: os.Getenv("MD2HTML_PROJECTS_DIR"),
		OutputDir:   os.Getenv("MD2HTML_OUTPUT_DIR"),
		CacheDir:    os.Getenv("MD2HTML_CACHE_DIR"),
		Mmdc:        os.Getenv("MD2HTML_MMDC"),
		Theme:       os.Getenv("MD2HTML_THEME"),
	}

	if timeout := os.Getenv("MD2HTML_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("MD2HTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized MD2HTML_*
// variable, in sorted order.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "MD2HTML_") {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s\n", name)
	}
}

// applyEnvConfig overrides cfg with every variable that is set.
// Environment values take precedence over the config file; flags are
// merged afterwards and win over both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.SiteURL != "" {
		cfg.Site.URL = env.SiteURL
	}
	if env.PostsDir != "" {
		cfg.Content.PostsDir = env.PostsDir
	}
	if env.ProjectsDir != "" {
		cfg.Content.ProjectsDir = env.ProjectsDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.CacheDir != "" {
		cfg.Diagrams.CacheDir = env.CacheDir
	}
	if env.Mmdc != "" {
		cfg.Diagrams.Command = env.Mmdc
	}
	if env.Theme != "" {
		cfg.Highlight.Theme = env.Theme
		cfg.Highlight.Dual = false
	}
	if env.Timeout > 0 {
		cfg.Diagrams.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
}
