// Package config loads the site build configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/dateutil"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxURLLength         = 2048 // Browser limit
	MaxTitleLength       = 200  // Site title
	MaxDescriptionLength = 500  // Meta description
	MaxPathLength        = 4096 // PATH_MAX on Linux
	MaxNameLength        = 100  // Theme, language and command names
	MaxMacroLength       = 200  // One macro expansion
	MaxWorkers           = 64
	MaxLanguages         = 200
)

// Diagram backend and embed names.
const (
	BackendCLI     = "cli"
	BackendBrowser = "browser"
	EmbedInline    = "inline"
	EmbedObject    = "object"
)

// Config holds all configuration for a site build.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Content   ContentConfig   `yaml:"content"`
	Output    OutputConfig    `yaml:"output"`
	Highlight HighlightConfig `yaml:"highlight"`
	Diagrams  DiagramsConfig  `yaml:"diagrams"`
	Math      MathConfig      `yaml:"math"`
	Headings  HeadingsConfig  `yaml:"headings"`
	Emoji     bool            `yaml:"emoji"`   // Replace :shortcodes: with emoji
	Workers   int             `yaml:"workers"` // 0 = auto
}

// SiteConfig describes the published site.
type SiteConfig struct {
	URL         string `yaml:"url"` // Absolute base URL, used by the sitemap and relative links
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`   // html lang attribute (default: "en")
	DateFormat  string `yaml:"dateFormat"` // Token format or preset for displayed dates (default: "long")
}

// ContentConfig locates the markdown sources.
type ContentConfig struct {
	PostsDir      string `yaml:"postsDir"`
	ProjectsDir   string `yaml:"projectsDir"`
	IncludeDrafts bool   `yaml:"includeDrafts"`
}

// OutputConfig defines where the site is written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HighlightConfig selects chroma themes and languages.
type HighlightConfig struct {
	Theme      string   `yaml:"theme"`      // Dark (or only) theme
	LightTheme string   `yaml:"lightTheme"` // Used when dual is true
	Dual       bool     `yaml:"dual"`
	Languages  []string `yaml:"languages"` // Empty = built-in list
}

// DiagramsConfig configures mermaid rendering.
type DiagramsConfig struct {
	Backend         string `yaml:"backend"`         // "cli" or "browser" (default: "cli")
	Command         string `yaml:"command"`         // mmdc binary (default: "mmdc")
	ConfigFile      string `yaml:"configFile"`      // mmdc -c
	PuppeteerConfig string `yaml:"puppeteerConfig"` // mmdc -p
	Script          string `yaml:"script"`          // mermaid.js path or URL for the browser backend
	CacheDir        string `yaml:"cacheDir"`        // Empty = <output>/mermaid
	Timeout         string `yaml:"timeout"`         // Go duration (default: "30s")
	Embed           string `yaml:"embed"`           // "inline" or "object" (default: "inline")
	URLPrefix       string `yaml:"urlPrefix"`       // Where object-embedded SVGs are served
	Concurrency     int    `yaml:"concurrency"`     // 0 = auto
}

// MathConfig configures TeX macro expansion.
type MathConfig struct {
	Macros map[string]string `yaml:"macros"` // nil = built-in macros, empty = none
}

// HeadingsConfig configures heading ids.
type HeadingsConfig struct {
	Unique bool `yaml:"unique"` // Suffix repeated ids with -2, -3, ...
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Language:   "en",
			DateFormat: dateutil.DefaultDisplayFormat,
		},
		Content: ContentConfig{
			PostsDir:    "content/blog",
			ProjectsDir: "content/projects",
		},
		Output: OutputConfig{Dir: "public"},
		Highlight: HighlightConfig{
			Theme:      "catppuccin-mocha",
			LightTheme: "catppuccin-latte",
			Dual:       true,
		},
		Diagrams: DiagramsConfig{
			Backend: BackendCLI,
			Timeout: "30s",
			Embed:   EmbedInline,
		},
	}
}

// TimeoutDuration returns the diagram timeout, or def when unset.
// Validate guarantees the value parses.
func (d DiagramsConfig) TimeoutDuration(def time.Duration) time.Duration {
	if d.Timeout == "" {
		return def
	}
	v, err := time.ParseDuration(d.Timeout)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Validate checks enums, numeric ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Validate site fields
	if err := validateFieldLength("site.url", c.Site.URL, MaxURLLength); err != nil {
		return err
	}
	if c.Site.URL != "" && !strings.HasPrefix(c.Site.URL, "http://") && !strings.HasPrefix(c.Site.URL, "https://") {
		return fmt.Errorf("%w: site.url must be absolute http(s), got %q", ErrInvalidValue, c.Site.URL)
	}
	if err := validateFieldLength("site.title", c.Site.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("site.description", c.Site.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := validateFieldLength("site.language", c.Site.Language, MaxNameLength); err != nil {
		return err
	}
	if c.Site.DateFormat != "" {
		if _, err := dateutil.ParseDateFormat(c.Site.DateFormat); err != nil {
			return fmt.Errorf("site.dateFormat: %w", err)
		}
	}

	// Validate paths
	for name, value := range map[string]string{
		"content.postsDir":         c.Content.PostsDir,
		"content.projectsDir":      c.Content.ProjectsDir,
		"output.dir":               c.Output.Dir,
		"diagrams.configFile":      c.Diagrams.ConfigFile,
		"diagrams.puppeteerConfig": c.Diagrams.PuppeteerConfig,
		"diagrams.cacheDir":        c.Diagrams.CacheDir,
		"diagrams.script":          c.Diagrams.Script,
	} {
		if err := validateFieldLength(name, value, MaxPathLength); err != nil {
			return err
		}
	}

	// Validate highlight fields
	if err := validateFieldLength("highlight.theme", c.Highlight.Theme, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("highlight.lightTheme", c.Highlight.LightTheme, MaxNameLength); err != nil {
		return err
	}
	if c.Highlight.Dual && c.Highlight.LightTheme == "" {
		return fmt.Errorf("%w: highlight.lightTheme: required when dual is true", ErrInvalidValue)
	}
	if len(c.Highlight.Languages) > MaxLanguages {
		return fmt.Errorf("%w: highlight.languages: %d entries (max %d)", ErrInvalidValue, len(c.Highlight.Languages), MaxLanguages)
	}
	for i, lang := range c.Highlight.Languages {
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("%w: highlight.languages[%d]: empty", ErrInvalidValue, i)
		}
		if err := validateFieldLength(fmt.Sprintf("highlight.languages[%d]", i), lang, MaxNameLength); err != nil {
			return err
		}
	}

	// Validate diagram fields
	switch strings.ToLower(c.Diagrams.Backend) {
	case "", BackendCLI:
		// valid
	case BackendBrowser:
		if c.Diagrams.Script == "" {
			return fmt.Errorf("%w: diagrams.script: required for the browser backend", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: diagrams.backend %q (must be cli or browser)", ErrInvalidValue, c.Diagrams.Backend)
	}
	switch strings.ToLower(c.Diagrams.Embed) {
	case "", EmbedInline, EmbedObject:
		// valid
	default:
		return fmt.Errorf("%w: diagrams.embed %q (must be inline or object)", ErrInvalidValue, c.Diagrams.Embed)
	}
	if err := validateFieldLength("diagrams.command", c.Diagrams.Command, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("diagrams.urlPrefix", c.Diagrams.URLPrefix, MaxURLLength); err != nil {
		return err
	}
	if c.Diagrams.Timeout != "" {
		d, err := time.ParseDuration(c.Diagrams.Timeout)
		if err != nil {
			return fmt.Errorf("%w: diagrams.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: diagrams.timeout: must be positive, got %s", ErrInvalidValue, c.Diagrams.Timeout)
		}
	}
	if c.Diagrams.Concurrency < 0 || c.Diagrams.Concurrency > MaxWorkers {
		return fmt.Errorf("%w: diagrams.concurrency: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Diagrams.Concurrency)
	}

	// Validate math macros
	for name, expansion := range c.Math.Macros {
		if !strings.HasPrefix(name, `\`) || len(name) < 2 {
			return fmt.Errorf("%w: math.macros: name %q must start with a backslash", ErrInvalidValue, name)
		}
		if err := validateFieldLength("math.macros."+name, expansion, MaxMacroLength); err != nil {
			return err
		}
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2html/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-md2html", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
