package pipeline

import (
	"bytes"
	"io"
	"regexp"
	"sync"

	katex "github.com/FurqanSoftware/goldmark-katex"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultMathMacros are expanded inside math before KaTeX sees it.
var DefaultMathMacros = map[string]string{
	`\vec`: `\mathbf`,
	`\RR`:  `\mathbb{R}`,
	`\CC`:  `\mathbb{C}`,
	`\NN`:  `\mathbb{N}`,
	`\ZZ`:  `\mathbb{Z}`,
}

// Math node kinds.
var (
	KindMathBlock  = ast.NewNodeKind("MathBlock")
	KindMathInline = ast.NewNodeKind("MathInline")
)

// MathBlock is display math: a $$ block or a ```math fence.
type MathBlock struct {
	ast.BaseBlock
	closed bool
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }
func (n *MathBlock) IsRaw() bool { return true }
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// MathInline is $...$ or $$...$$ inside a paragraph. Its TeX is held in
// raw text children.
type MathInline struct {
	ast.BaseInline
	Display bool
}

func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Display": boolString(n.Display)}, nil)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var mathDelimiter = []byte("$$")

// mathBlockParser opens on a line starting with $$ and closes on the next
// line containing $$. "$$ x $$" on one line is a complete block.
type mathBlockParser struct{}

func (mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], mathDelimiter) {
		return nil, parser.NoChildren
	}
	rest := line[pos+2:]
	start := segment.Start + pos + 2
	node := &MathBlock{}
	if i := bytes.Index(rest, mathDelimiter); i >= 0 {
		if !util.IsBlank(rest[i+2:]) {
			return nil, parser.NoChildren
		}
		node.Lines().Append(text.NewSegment(start, start+i))
		node.closed = true
	} else if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(start, segment.Stop))
	}
	reader.AdvanceToEOL()
	return node, parser.NoChildren
}

func (mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if i := bytes.Index(line, mathDelimiter); i >= 0 {
		if !util.IsBlank(line[:i]) {
			n.Lines().Append(text.NewSegment(segment.Start, segment.Start+i))
		}
		reader.AdvanceToEOL()
		return parser.Close
	}
	n.Lines().Append(segment)
	reader.AdvanceToEOL()
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}
func (mathBlockParser) CanInterruptParagraph() bool { return true }
func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

// mathInlineParser handles $tex$ and $$tex$$ within a line. A single-dollar
// span must not start or end with a space and must not be followed by a
// digit, so prices like "$5 and $10" stay text.
type mathInlineParser struct{}

func (mathInlineParser) Trigger() []byte { return []byte{'$'} }

func (mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	end := -1
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\\':
			i++
		case body[i] != '$':
		case delim == 1:
			end = i
		case i+1 < len(body) && body[i+1] == '$':
			end = i
		}
		if end >= 0 {
			break
		}
	}
	if end <= 0 {
		return nil
	}
	if delim == 1 {
		if util.IsSpace(body[0]) || util.IsSpace(body[end-1]) {
			return nil
		}
		if end+1 < len(body) && body[end+1] >= '0' && body[end+1] <= '9' {
			return nil
		}
	}

	node := &MathInline{Display: delim == 2}
	start := segment.Start + delim
	node.AppendChild(node, ast.NewRawTextSegment(text.NewSegment(start, start+end)))
	block.Advance(delim + end + delim)
	return node
}

// mathFenceTransformer turns ```math fences into display math.
type mathFenceTransformer struct{}

func (mathFenceTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if f, ok := n.(*ast.FencedCodeBlock); ok && bytes.Equal(f.Language(reader.Source()), []byte("math")) {
			fences = append(fences, f)
		}
		return ast.WalkContinue, nil
	})
	for _, f := range fences {
		if parent := f.Parent(); parent != nil {
			m := &MathBlock{closed: true}
			m.SetLines(f.Lines())
			parent.ReplaceChild(parent, f, m)
		}
	}
}

// commandPattern matches a TeX control word. An escaped backslash is
// matched first so "\\RR" is left alone.
var commandPattern = regexp.MustCompile(`\\\\|\\[A-Za-z]+`)

// ExpandMathMacros replaces control words found in macros.
func ExpandMathMacros(tex string, macros map[string]string) string {
	if len(macros) == 0 {
		return tex
	}
	return commandPattern.ReplaceAllStringFunc(tex, func(cmd string) string {
		if m, ok := macros[cmd]; ok {
			return m
		}
		return cmd
	})
}

// mathRenderer renders TeX to KaTeX HTML. TeX that KaTeX rejects is
// written escaped inside a katex-error span and the page still renders.
type mathRenderer struct {
	macros map[string]string
	render func(w io.Writer, src []byte, display bool) error
	cache  sync.Map // mathKey -> string
}

type mathKey struct {
	tex     string
	display bool
}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathBlock, r.renderBlock)
	reg.Register(KindMathInline, r.renderInline)
}

func (r *mathRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	tex := bytes.TrimSpace(node.Lines().Value(source))
	_, _ = w.WriteString(`<div class="math math-display">`)
	r.writeTeX(w, tex, true)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) renderInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var tex []byte
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			tex = append(tex, t.Segment.Value(source)...)
		}
	}
	display := node.(*MathInline).Display
	if display {
		_, _ = w.WriteString(`<span class="math math-display">`)
	} else {
		_, _ = w.WriteString(`<span class="math math-inline">`)
	}
	r.writeTeX(w, tex, display)
	_, _ = w.WriteString(`</span>`)
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) writeTeX(w util.BufWriter, tex []byte, display bool) {
	key := mathKey{tex: ExpandMathMacros(string(tex), r.macros), display: display}
	if html, ok := r.cache.Load(key); ok {
		_, _ = w.WriteString(html.(string))
		return
	}

	var buf bytes.Buffer
	if err := r.render(&buf, []byte(key.tex), display); err != nil {
		buf.Reset()
		buf.WriteString(`<span class="katex-error" title="`)
		buf.Write(util.EscapeHTML([]byte(err.Error())))
		buf.WriteString(`">`)
		buf.Write(util.EscapeHTML([]byte(key.tex)))
		buf.WriteString(`</span>`)
	}
	html, _ := r.cache.LoadOrStore(key, buf.String())
	_, _ = w.WriteString(html.(string))
}

// mathExtension wires math parsing and rendering into goldmark.
type mathExtension struct {
	macros map[string]string
}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(mathBlockParser{}, 150)),
		parser.WithInlineParsers(util.Prioritized(mathInlineParser{}, 150)),
		parser.WithASTTransformers(util.Prioritized(mathFenceTransformer{}, 100)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathRenderer{macros: e.macros, render: katex.Render}, 100)),
	)
}

var _ goldmark.Extender = (*mathExtension)(nil)
