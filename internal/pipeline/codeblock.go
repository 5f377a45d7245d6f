package pipeline

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// DefaultLanguage tags code blocks that declare no language.
const DefaultLanguage = "text"

// Highlighter converts source code to highlighted HTML.
type Highlighter interface {
	Highlight(code, lang string) (string, error)
}

var codeEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// FallbackCodeBlock renders code as an escaped block tagged with lang.
func FallbackCodeBlock(code, lang string) string {
	return `<pre><code class="language-` + codeEscaper.Replace(lang) + `">` +
		codeEscaper.Replace(code) + "</code></pre>\n"
}

// codeBlockRenderer highlights fenced and indented code blocks. Diagram
// fences never reach it: they are replaced by DiagramBlock nodes first.
type codeBlockRenderer struct {
	highlighter Highlighter
	logger      *slog.Logger
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r *codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := DefaultLanguage
	if l := n.Language(source); len(l) > 0 {
		lang = string(l)
	}
	r.write(w, lang, string(n.Lines().Value(source)))
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.write(w, DefaultLanguage, string(node.Lines().Value(source)))
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) write(w util.BufWriter, lang, code string) {
	if r.highlighter != nil {
		out, err := r.highlighter.Highlight(code, lang)
		if err == nil {
			_, _ = w.WriteString(out)
			if !strings.HasSuffix(out, "\n") {
				_ = w.WriteByte('\n')
			}
			return
		}
		r.logger.Warn("highlighting failed, using plain code block", "language", lang, "error", err)
	}
	_, _ = w.WriteString(FallbackCodeBlock(code, lang))
}
