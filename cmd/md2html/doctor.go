package main

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/diagram"
	"github.com/alnah/go-md2html/internal/fileutil"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Backend  string     `json:"backend"`
	Mermaid  binaryInfo `json:"mermaid_cli"`
	Chrome   chromeInfo `json:"chrome"`
	Cache    cacheInfo  `json:"cache"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// binaryInfo holds detection results for an external program.
type binaryInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	binaryInfo
	Sandbox bool `json:"sandbox"`
}

// cacheInfo holds diagram cache directory checks.
type cacheInfo struct {
	Dir      string `json:"dir"`
	Writable bool   `json:"writable"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// doctorProbes locates external programs. Tests replace them.
type doctorProbes struct {
	chrome  func() (string, bool)
	mmdc    func(command string) (string, error)
	version func(bin string) (string, error)
}

// defaultProbes uses rod's launcher for Chrome and PATH lookup for mmdc.
var defaultProbes = doctorProbes{
	chrome: launcher.LookPath,
	mmdc: func(command string) (string, error) {
		return (&diagram.CLIBackend{Command: command}).LookPath()
	},
	version: func(bin string) (string, error) {
		out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- bin is a located browser or mmdc binary
		return strings.TrimSpace(string(out)), err
	},
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		jsonOutput bool
		configName string
	)
	fs.BoolVar(&jsonOutput, "json", false, "output JSON")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	cfg, err := loadSettings(&siteFlags{common: commonFlags{config: configName}})
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(cfg, defaultProbes)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config, probes doctorProbes) *doctorResult {
	result := &doctorResult{
		Status:  statusReady,
		Backend: strings.ToLower(cmp.Or(cfg.Diagrams.Backend, config.BackendCLI)),
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkMermaidCLI(result, cfg, probes)
	checkChrome(result, probes)
	checkEnvironment(result)
	checkCache(result, cfg)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkMermaidCLI locates mmdc. Missing mmdc is an error only for the cli
// backend.
func checkMermaidCLI(result *doctorResult, cfg *config.Config, probes doctorProbes) {
	path, err := probes.mmdc(cfg.Diagrams.Command)
	if err != nil {
		msg := fmt.Sprintf("mermaid CLI not found (%v). Install @mermaid-js/mermaid-cli or set MD2HTML_MMDC", err)
		if result.Backend == config.BackendCLI {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
		return
	}

	result.Mermaid.Found = true
	result.Mermaid.Path = path
	if v, err := probes.version(path); err == nil {
		result.Mermaid.Version = v
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get mermaid CLI version: %v", err))
	}
}

// checkChrome detects Chrome/Chromium. Missing Chrome is an error only for
// the browser backend; mmdc ships its own Chromium.
func checkChrome(result *doctorResult, probes doctorProbes) {
	report := func(msg string) {
		if result.Backend == config.BackendBrowser {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = probes.chrome()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	if v, err := probes.version(chromePath); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("MD2HTML_CONTAINER") == "1" {
		return true, "MD2HTML_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkCache verifies the diagram cache directory accepts files.
func checkCache(result *doctorResult, cfg *config.Config) {
	result.Cache.Dir = diagramCacheDir(cfg)
	if err := fileutil.DirWritable(result.Cache.Dir); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Diagram cache not writable: %s (%v)", result.Cache.Dir, err))
		return
	}
	result.Cache.Writable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2html doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Mermaid CLI (backend: %s)\n", r.Backend)
	if r.Mermaid.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Mermaid.Path)
		if r.Mermaid.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Mermaid.Version)
		}
	} else {
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Diagram cache")
	if r.Cache.Writable {
		fmt.Fprintf(w, "  [OK] %s: writable\n", r.Cache.Dir)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s: not writable\n", r.Cache.Dir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to build")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
