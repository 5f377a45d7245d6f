package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// contentFlags holds content and output location flags.
type contentFlags struct {
	postsDir    string
	projectsDir string
	output      string
	drafts      bool
	assetPath   string
}

// renderFlags holds markdown rendering flags.
type renderFlags struct {
	theme     string
	cacheDir  string
	mmdc      string
	puppeteer string
	timeout   string
	uniqueIDs bool
	emoji     bool
}

// siteFlags holds all flags for build, diagrams and watch.
type siteFlags struct {
	common  commonFlags
	content contentFlags
	render  renderFlags
	workers int
	root    string // optional positional site directory
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addContentFlags adds content location flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.StringVar(&f.postsDir, "posts", "", "blog post directory")
	fs.StringVar(&f.projectsDir, "projects", "", "project directory")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.BoolVar(&f.drafts, "drafts", false, "include draft posts")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding built-in templates and styles")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.theme, "theme", "", "single highlight theme (disables dual themes)")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "rendered diagram cache directory")
	fs.StringVar(&f.mmdc, "mmdc", "", "mermaid CLI binary")
	fs.StringVar(&f.puppeteer, "puppeteer-config", "", "puppeteer config file passed to mmdc")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.uniqueIDs, "unique-ids", false, "suffix repeated heading ids")
	fs.BoolVar(&f.emoji, "emoji", false, "replace :shortcodes: with emoji")
}

// newSiteFlagSet registers every site flag on a new FlagSet.
func newSiteFlagSet(name string, f *siteFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel page workers (0 = auto)")
	addCommonFlags(fs, &f.common)
	addContentFlags(fs, &f.content)
	addRenderFlags(fs, &f.render)
	return fs
}

// parseSiteFlags parses flags for a site command. One optional positional
// argument names the site directory that relative paths resolve against.
func parseSiteFlags(name string, args []string, usage io.Writer) (*siteFlags, error) {
	f := &siteFlags{}
	fs := newSiteFlagSet(name, f)
	fs.SetOutput(usage)
	fs.Usage = func() { printSiteUsage(usage, name) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		f.root = fs.Arg(0)
	default:
		return nil, fmt.Errorf("%w: expected at most one site directory, got %v", ErrInvalidArgs, fs.Args())
	}
	if f.workers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, f.workers)
	}
	return f, nil
}
