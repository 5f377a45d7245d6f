package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html <command> [flags] [site-dir]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Render posts and write the site")
	fmt.Fprintln(w, "  diagrams    Prerender mermaid diagrams into the cache")
	fmt.Fprintln(w, "  watch       Rebuild the site when content changes")
	fmt.Fprintln(w, "  config      Print the effective configuration")
	fmt.Fprintln(w, "  doctor      Check diagram renderers and the cache")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2html help <command>' for details on a specific command.")
}

// siteCommandSummaries describes the commands sharing the site flags.
var siteCommandSummaries = map[string]string{
	"build":    "Render every published post, the indexes, the projects page, stylesheets,\nsitemap.xml and robots.txt into the output directory.",
	"diagrams": "Render every mermaid block of posts (drafts included) and projects into\nthe diagram cache. Cached diagrams are skipped.",
	"watch":    "Build the site, then rebuild whenever posts, projects or assets change.",
}

// printSiteUsage prints usage for build, diagrams and watch.
func printSiteUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: md2html %s [flags] [site-dir]\n", name)
	fmt.Fprintln(w)
	if summary, ok := siteCommandSummaries[name]; ok {
		fmt.Fprintln(w, summary)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  site-dir    Directory relative paths resolve against (default: current)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --posts <dir>         Blog post directory (default: content/blog)")
	fmt.Fprintln(w, "      --projects <dir>      Project directory (default: content/projects)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: public)")
	fmt.Fprintln(w, "      --drafts              Include draft posts")
	fmt.Fprintln(w, "      --asset-path <dir>    Override built-in templates and styles")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --theme <name>        Single chroma theme (disables dual themes)")
	fmt.Fprintln(w, "      --unique-ids          Suffix repeated heading ids with -2, -3, ...")
	fmt.Fprintln(w, "      --emoji               Replace :shortcodes: with emoji")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --cache-dir <dir>     Diagram cache (default: <output>/mermaid)")
	fmt.Fprintln(w, "      --mmdc <path>         Mermaid CLI binary (default: mmdc)")
	fmt.Fprintln(w, "      --puppeteer-config <file>")
	fmt.Fprintln(w, "                            Puppeteer config passed to mmdc")
	fmt.Fprintln(w, "  -t, --timeout <duration>  Per-diagram timeout (default: 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel page workers (0 = auto)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MD2HTML_CONFIG, MD2HTML_SITE_URL, MD2HTML_POSTS_DIR, MD2HTML_PROJECTS_DIR,")
	fmt.Fprintln(w, "  MD2HTML_OUTPUT_DIR, MD2HTML_CACHE_DIR, MD2HTML_MMDC, MD2HTML_THEME,")
	fmt.Fprintln(w, "  MD2HTML_TIMEOUT, MD2HTML_WORKERS")
	fmt.Fprintln(w, "  Priority: flags > environment > config file > defaults")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html config [flags] [site-dir]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML. Accepts the same flags as build.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html doctor [--json] [-c config]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the mermaid CLI, Chrome, and the diagram cache directory.")
	fmt.Fprintln(w, "Exits 1 when a required component is missing.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "build", "diagrams", "watch":
		printSiteUsage(env.Stdout, args[0])
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2html version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2html help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
