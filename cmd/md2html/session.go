package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/diagram"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/highlight"
	"github.com/alnah/go-md2html/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrReadContent        = errors.New("failed to read content")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidArgs        = errors.New("invalid arguments")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// defaultDiagramTimeout applies when neither config nor flags set one.
const defaultDiagramTimeout = md2html.DefaultTimeout

// session bundles what a site command needs: the resolved configuration,
// a logger, and a Renderer built from both.
type session struct {
	env      *Environment
	flags    *siteFlags
	cfg      *config.Config
	logger   *slog.Logger
	assets   assets.AssetLoader
	renderer *md2html.Renderer
}

// siteCommand runs one site command against an open session.
type siteCommand func(ctx context.Context, s *session) error

// runSiteCommand parses flags, opens a session, and runs fn.
func runSiteCommand(ctx context.Context, name string, args []string, env *Environment, fn siteCommand) error {
	flags, err := parseSiteFlags(name, args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		if errors.Is(err, ErrInvalidArgs) || errors.Is(err, ErrInvalidWorkerCount) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	setMaxProcs(env, flags.common.verbose)
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	s, err := openSession(flags, env)
	if err != nil {
		return err
	}
	defer s.close()

	return fn(ctx, s)
}

// openSession resolves configuration and creates the Renderer.
func openSession(flags *siteFlags, env *Environment) (*session, error) {
	cfg, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}

	loader, err := assets.NewAssetResolver(flags.content.assetPath)
	if err != nil {
		return nil, fmt.Errorf("asset path: %w", err)
	}

	logger := env.newLogger(flags.common.quiet, flags.common.verbose)
	if loader.HasCustomLoader() {
		logger.Debug("using custom assets", "path", flags.content.assetPath)
	}
	opts, err := rendererOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	r, err := md2html.NewRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w%s", err, hints.ForOutputDirectory())
	}

	return &session{
		env:      env,
		flags:    flags,
		cfg:      cfg,
		logger:   logger,
		assets:   loader,
		renderer: r,
	}, nil
}

func (s *session) close() {
	if err := s.renderer.Close(); err != nil {
		s.logger.Warn("closing diagram renderer", "error", err)
	}
}

// loadSettings resolves the configuration. Priority: flags > environment >
// config file > defaults.
func loadSettings(flags *siteFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(userConfigPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	root := "."
	if flags.root != "" {
		root = flags.root
		rebase(cfg, root)
	}
	defaultDiagramConfigs(cfg, root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// userConfigPaths returns where a named config would be looked up outside
// the working directory.
func userConfigPaths(name string) []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-md2html", name+".yaml")}
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *siteFlags, cfg *config.Config) {
	if flags.content.postsDir != "" {
		cfg.Content.PostsDir = flags.content.postsDir
	}
	if flags.content.projectsDir != "" {
		cfg.Content.ProjectsDir = flags.content.projectsDir
	}
	if flags.content.output != "" {
		cfg.Output.Dir = flags.content.output
	}
	if flags.content.drafts {
		cfg.Content.IncludeDrafts = true
	}
	if flags.render.theme != "" {
		cfg.Highlight.Theme = flags.render.theme
		cfg.Highlight.Dual = false
	}
	if flags.render.cacheDir != "" {
		cfg.Diagrams.CacheDir = flags.render.cacheDir
	}
	if flags.render.mmdc != "" {
		cfg.Diagrams.Command = flags.render.mmdc
	}
	if flags.render.puppeteer != "" {
		cfg.Diagrams.PuppeteerConfig = flags.render.puppeteer
	}
	if flags.render.timeout != "" {
		cfg.Diagrams.Timeout = flags.render.timeout
	}
	if flags.render.uniqueIDs {
		cfg.Headings.Unique = true
	}
	if flags.render.emoji {
		cfg.Emoji = true
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
}

// rebase resolves the relative content, output and cache paths of cfg
// against root.
func rebase(cfg *config.Config, root string) {
	for _, p := range []*string{
		&cfg.Content.PostsDir,
		&cfg.Content.ProjectsDir,
		&cfg.Output.Dir,
		&cfg.Diagrams.CacheDir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

// mmdc config files picked up from the site directory.
const (
	mermaidConfigFile   = "mermaid.config.json"
	puppeteerConfigFile = "puppeteer.config.json"
)

// defaultDiagramConfigs points mmdc at mermaid.config.json and
// puppeteer.config.json in root when they exist and nothing else is set.
func defaultDiagramConfigs(cfg *config.Config, root string) {
	for _, c := range []struct {
		path *string
		name string
	}{
		{&cfg.Diagrams.ConfigFile, mermaidConfigFile},
		{&cfg.Diagrams.PuppeteerConfig, puppeteerConfigFile},
	} {
		if *c.path != "" {
			continue
		}
		if path := filepath.Join(root, c.name); fileutil.FileExists(path) {
			*c.path = path
		}
	}
}

// diagramCacheDir returns the configured cache directory, defaulting to a
// directory inside the output so object-embedded diagrams are published.
func diagramCacheDir(cfg *config.Config) string {
	if cfg.Diagrams.CacheDir != "" {
		return cfg.Diagrams.CacheDir
	}
	return filepath.Join(cfg.Output.Dir, strings.TrimPrefix(diagram.DefaultURLPrefix, "/"))
}

// rendererOptions translates cfg into Renderer options.
func rendererOptions(cfg *config.Config, logger *slog.Logger) ([]md2html.Option, error) {
	opts := []md2html.Option{
		md2html.WithLogger(logger),
		md2html.WithTimeout(cfg.Diagrams.TimeoutDuration(defaultDiagramTimeout)),
		md2html.WithDiagramCache(diagramCacheDir(cfg)),
	}

	if cfg.Highlight.Dual {
		opts = append(opts, md2html.WithDualTheme(cfg.Highlight.Theme, cfg.Highlight.LightTheme))
	} else if cfg.Highlight.Theme != "" {
		opts = append(opts, md2html.WithTheme(cfg.Highlight.Theme))
	}
	if len(cfg.Highlight.Languages) > 0 {
		opts = append(opts, md2html.WithLanguages(cfg.Highlight.Languages...))
	}

	switch strings.ToLower(cfg.Diagrams.Backend) {
	case "", config.BackendCLI:
		opts = append(opts, md2html.WithMermaidCLI(cfg.Diagrams.Command, cfg.Diagrams.ConfigFile, cfg.Diagrams.PuppeteerConfig))
	case config.BackendBrowser:
		opts = append(opts, md2html.WithBrowserDiagrams(cfg.Diagrams.Script))
	default:
		return nil, fmt.Errorf("%w: %q", md2html.ErrUnknownBackend, cfg.Diagrams.Backend)
	}
	if cfg.Diagrams.Concurrency > 0 {
		opts = append(opts, md2html.WithDiagramConcurrency(cfg.Diagrams.Concurrency))
	}
	if strings.EqualFold(cfg.Diagrams.Embed, config.EmbedObject) {
		prefix := cfg.Diagrams.URLPrefix
		if prefix == "" {
			prefix = diagram.DefaultURLPrefix
		}
		opts = append(opts, md2html.WithObjectEmbed(prefix))
	}

	if cfg.Math.Macros != nil {
		opts = append(opts, md2html.WithMathMacros(cfg.Math.Macros))
	}
	if cfg.Headings.Unique {
		opts = append(opts, md2html.WithUniqueHeadingIDs())
	}
	if cfg.Emoji {
		opts = append(opts, md2html.WithEmoji())
	}

	return opts, nil
}

// withHint appends an actionable hint for errors users can fix themselves.
func withHint(err error) error {
	switch {
	case errors.Is(err, diagram.ErrBrowserConnect):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
	case errors.Is(err, diagram.ErrRendererNotFound):
		return fmt.Errorf("%w%s", err, hints.ForMermaidCLI())
	case errors.Is(err, diagram.ErrTimeout):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, highlight.ErrUnknownTheme):
		return fmt.Errorf("%w%s", err, hints.ForUnknownTheme(highlight.Themes()))
	}
	return err
}
