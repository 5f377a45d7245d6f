package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/process"
)

// CLI defaults.
const (
	DefaultCommand    = "mmdc"
	DefaultBackground = "transparent"
	DefaultTimeout    = 30 * time.Second

	// waitDelay bounds how long Wait blocks on output pipes after a kill.
	waitDelay = 2 * time.Second

	// maxStderr caps the stderr excerpt kept in errors.
	maxStderr = 512
)

// CLIBackend renders with the mermaid CLI:
//
//	mmdc -i input.mmd -o output.svg -c config -p puppeteer -b transparent
//
// Each call works in its own temp directory, removed on every exit path.
type CLIBackend struct {
	// Command is the executable, "mmdc" by default. Set Command to "npx" and
	// Args to ["mmdc"] to run a project-local install.
	Command string
	Args    []string

	// ConfigFile is passed with -c when set.
	ConfigFile string

	// PuppeteerConfig is passed with -p when set.
	PuppeteerConfig string

	// Background defaults to transparent.
	Background string

	// Timeout bounds one invocation; DefaultTimeout when zero.
	Timeout time.Duration
}

// Render writes source to a scoped temp dir, runs the CLI and returns the SVG.
func (b *CLIBackend) Render(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, cleanup, err := fileutil.TempDir("mermaid-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer cleanup()

	in := filepath.Join(dir, "input.mmd")
	out := filepath.Join(dir, "output.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing input: %v", ErrRender, err)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.command(), b.args(in, out)...)
	process.SetProcessGroup(cmd)
	cmd.Cancel = process.GroupCancel(cmd)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrRendererNotFound, b.command())
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v%s", ErrRender, err, excerpt(stderr.String()))
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEmptyOutput
		}
		return nil, fmt.Errorf("%w: reading output: %v", ErrRender, err)
	}
	if len(bytes.TrimSpace(svg)) == 0 {
		return nil, ErrEmptyOutput
	}
	return svg, nil
}

func (b *CLIBackend) command() string {
	if b.Command == "" {
		return DefaultCommand
	}
	return b.Command
}

func (b *CLIBackend) args(in, out string) []string {
	bg := b.Background
	if bg == "" {
		bg = DefaultBackground
	}
	args := append([]string(nil), b.Args...)
	args = append(args, "-i", in, "-o", out)
	if b.ConfigFile != "" {
		args = append(args, "-c", b.ConfigFile)
	}
	if b.PuppeteerConfig != "" {
		args = append(args, "-p", b.PuppeteerConfig)
	}
	return append(args, "-b", bg)
}

// LookPath reports the resolved path of the configured command.
func (b *CLIBackend) LookPath() (string, error) {
	path, err := exec.LookPath(b.command())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRendererNotFound, b.command())
	}
	return path, nil
}

func excerpt(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return ": " + s
}

// Compile-time interface check.
var _ Backend = (*CLIBackend)(nil)
