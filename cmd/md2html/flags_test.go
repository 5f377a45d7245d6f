package main

// Notes:
// - parseSiteFlags: we test short and long spellings, the optional site
//   directory, and rejection of extra arguments and negative workers.
// - Help output is checked for presence, not exact text.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParseSiteFlags - Flag parsing for build, diagrams and watch
// ---------------------------------------------------------------------------

func TestParseSiteFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want siteFlags
	}{
		{
			name: "no flags",
			args: nil,
			want: siteFlags{},
		},
		{
			name: "site directory",
			args: []string{"site"},
			want: siteFlags{root: "site"},
		},
		{
			name: "short flags",
			args: []string{"-c", "blog", "-q", "-o", "dist", "-t", "1m", "-w", "4"},
			want: siteFlags{
				common:  commonFlags{config: "blog", quiet: true},
				content: contentFlags{output: "dist"},
				render:  renderFlags{timeout: "1m"},
				workers: 4,
			},
		},
		{
			name: "long flags",
			args: []string{
				"--posts", "p", "--projects", "pr", "--drafts", "--asset-path", "theme",
				"--theme", "monokai", "--cache-dir", "c", "--mmdc", "/bin/mmdc",
				"--puppeteer-config", "pp.json", "--unique-ids", "--emoji", "--verbose", "site",
			},
			want: siteFlags{
				common:  commonFlags{verbose: true},
				content: contentFlags{postsDir: "p", projectsDir: "pr", drafts: true, assetPath: "theme"},
				render: renderFlags{
					theme: "monokai", cacheDir: "c", mmdc: "/bin/mmdc",
					puppeteer: "pp.json", uniqueIDs: true, emoji: true,
				},
				root: "site",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSiteFlags("build", tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("parseSiteFlags() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, *got, cmp.AllowUnexported(siteFlags{}, commonFlags{}, contentFlags{}, renderFlags{})); diff != "" {
				t.Errorf("parseSiteFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseSiteFlags_Errors - Invalid arguments
// ---------------------------------------------------------------------------

func TestParseSiteFlags_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"two directories", []string{"a", "b"}, ErrInvalidArgs},
		{"negative workers", []string{"-w", "-1"}, ErrInvalidWorkerCount},
		{"help", []string{"--help"}, flag.ErrHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseSiteFlags("build", tt.args, &bytes.Buffer{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseSiteFlags() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		if _, err := parseSiteFlags("build", []string{"--nope"}, &bytes.Buffer{}); err == nil {
			t.Error("expected error for unknown flag")
		}
	})
}

// ---------------------------------------------------------------------------
// TestParseSiteFlags_Usage - Help goes to the usage writer
// ---------------------------------------------------------------------------

func TestParseSiteFlags_Usage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, _ = parseSiteFlags("diagrams", []string{"-h"}, &buf)

	out := buf.String()
	for _, want := range []string{"md2html diagrams", "--cache-dir", "MD2HTML_TIMEOUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage missing %q:\n%s", want, out)
		}
	}
}
