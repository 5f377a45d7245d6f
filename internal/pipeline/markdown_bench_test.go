//go:build bench

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alnah/go-md2html/internal/highlight"
)

func newBenchMarkdown(b *testing.B, dual bool) *Markdown {
	b.Helper()
	cfg := highlight.DefaultConfig()
	if !dual {
		cfg.LightTheme = ""
	}
	engine, err := highlight.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return New(Options{Highlighter: engine, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

// BenchmarkConvert benchmarks markdown to HTML conversion.
func BenchmarkConvert(b *testing.B) {
	md := newBenchMarkdown(b, true)
	ctx := context.Background()

	inputs := []struct {
		name    string
		content string
	}{
		{"minimal", "# Hello\n\nWorld"},
		{"paragraph", strings.Repeat("This is a paragraph with some text.\n\n", 10)},
		{"headings", generateHeadingsMarkdown(20)},
		{"code_blocks", generateCodeBlocksMarkdown(10)},
		{"math", strings.Repeat("Inline $x^2 + \\RR$ and\n\n$$\n\\vec{v} \\in \\RR^n\n$$\n\n", 20)},
		{"mixed_small", generateMixedMarkdown(10)},
		{"mixed_large", generateMixedMarkdown(200)},
	}

	for _, input := range inputs {
		b.Run(input.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := md.Convert(ctx, input.content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkConvertTheme compares single and dual theme highlighting.
func BenchmarkConvertTheme(b *testing.B) {
	content := generateCodeBlocksMarkdown(20)
	for _, dual := range []bool{false, true} {
		md := newBenchMarkdown(b, dual)
		b.Run(fmt.Sprintf("dual_%t", dual), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := md.Convert(context.Background(), content); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkConvertParallel benchmarks concurrent conversion on one shared
// converter, as a site build does.
func BenchmarkConvertParallel(b *testing.B) {
	md := newBenchMarkdown(b, true)
	ctx := context.Background()
	content := generateMixedMarkdown(20)

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := md.Convert(ctx, content); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// Helper functions for generating benchmark input

func generateHeadingsMarkdown(count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		level := (i % 6) + 1
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(fmt.Sprintf(" Heading %d\n\n", i+1))
		sb.WriteString("Some content under this heading.\n\n")
	}
	return sb.String()
}

func generateCodeBlocksMarkdown(count int) string {
	var sb strings.Builder
	code := `def example():
    print("Hello, World!")
    for i in range(10):
        process(i)`
	for i := 0; i < count; i++ {
		sb.WriteString("## Code Example\n\n")
		sb.WriteString("```python\n")
		sb.WriteString(code)
		sb.WriteString("\n```\n\n")
	}
	return sb.String()
}

func generateMixedMarkdown(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Document Title\n\n")
	sb.WriteString("Introduction paragraph with **bold** and *italic* text.\n\n")

	for i := 0; i < sections; i++ {
		sb.WriteString(fmt.Sprintf("## Section %d\n\n", i+1))
		sb.WriteString("This is a paragraph with some content. ")
		sb.WriteString("It includes [links](https://example.com), `inline code` and $e^{i\\pi}$.\n\n")

		sb.WriteString("- Item one\n")
		sb.WriteString("- Item two\n\n")

		if i%3 == 0 {
			sb.WriteString("```rust\nfn main() {\n    println!(\"Hello\");\n}\n```\n\n")
		}
		if i%5 == 0 {
			sb.WriteString("| A | B | C |\n|---|---|---|\n| 1 | 2 | 3 |\n\n")
		}
	}

	return sb.String()
}
