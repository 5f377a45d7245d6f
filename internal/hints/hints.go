// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2html/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a common CI environment variable is set.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	// Suggest ROD_NO_SANDBOX for container/CI environments
	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	// Suggest ROD_BROWSER_BIN if not set
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForMermaidCLI returns hints for a missing or failing mmdc.
// mmdc drives its own Chromium through puppeteer, which needs --no-sandbox
// in containers.
func ForMermaidCLI() string {
	hints := []string{"install with: npm install -g @mermaid-js/mermaid-cli", "or set MD2HTML_MMDC to its path"}
	if inCI() || IsInContainer() {
		hints = append(hints, `pass a puppeteer config with {"args": ["--no-sandbox"]} via --puppeteer-config`)
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow diagrams.
func ForTimeout() string {
	return format("for large diagrams, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-md2html/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/go-md2html) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-md2html") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForUnknownTheme returns hints listing a few valid chroma styles.
func ForUnknownTheme(available []string) string {
	if len(available) == 0 {
		return ""
	}
	const maxListed = 8
	listed := available
	suffix := ""
	if len(listed) > maxListed {
		listed = listed[:maxListed]
		suffix = ", ..."
	}
	return format("available: " + strings.Join(listed, ", ") + suffix)
}

// ForNoPosts returns a hint when the posts directory holds no dated posts.
func ForNoPosts(dir string) string {
	return format("posts must be named YYYY-MM-DD-slug.md in " + dir)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
