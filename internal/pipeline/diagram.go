package pipeline

import (
	"context"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"golang.org/x/sync/errgroup"
)

// DiagramLanguage is the fence tag of a diagram block.
const DiagramLanguage = "mermaid"

// DiagramRenderer renders diagram source to HTML. It reports failures as
// markup, never as an error.
type DiagramRenderer interface {
	Render(ctx context.Context, source string) string
}

// KindDiagramBlock is the kind of DiagramBlock.
var KindDiagramBlock = ast.NewNodeKind("DiagramBlock")

// DiagramBlock replaces a diagram fence once it has been rendered. HTML is
// written verbatim.
type DiagramBlock struct {
	ast.BaseBlock
	Source string
	HTML   string
}

func (n *DiagramBlock) Kind() ast.NodeKind { return KindDiagramBlock }
func (n *DiagramBlock) IsRaw() bool { return true }
func (n *DiagramBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": n.Source}, nil)
}

type diagramBlockRenderer struct{}

func (diagramBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagramBlock, func(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(node.(*DiagramBlock).HTML)
		}
		return ast.WalkSkipChildren, nil
	})
}

// diagramFences returns every fence tagged DiagramLanguage, in document order.
func diagramFences(doc ast.Node, source []byte) []*ast.FencedCodeBlock {
	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if f, ok := n.(*ast.FencedCodeBlock); ok && strings.EqualFold(string(f.Language(source)), DiagramLanguage) {
			fences = append(fences, f)
		}
		return ast.WalkContinue, nil
	})
	return fences
}

// renderDiagrams renders every diagram fence in doc, at most limit at a
// time, and swaps each fence for a DiagramBlock holding the result.
func renderDiagrams(ctx context.Context, doc ast.Node, source []byte, r DiagramRenderer, limit int) error {
	fences := diagramFences(doc, source)
	if len(fences) == 0 {
		return nil
	}

	blocks := make([]*DiagramBlock, len(fences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, f := range fences {
		blocks[i] = &DiagramBlock{Source: string(f.Lines().Value(source))}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			blocks[i].HTML = r.Render(gctx, blocks[i].Source)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// A render interrupted by cancellation returns an error fragment, not
	// the diagram. Don't let it into the page.
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, f := range fences {
		if parent := f.Parent(); parent != nil {
			parent.ReplaceChild(parent, f, blocks[i])
		}
	}
	return nil
}
