package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/content"
)

// runDiagrams fills the diagram cache from every post, drafts included, and
// every published project.
func runDiagrams(ctx context.Context, s *session) error {
	posts, err := content.LoadPosts(s.cfg.Content.PostsDir, content.PostOptions{IncludeDrafts: true})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadContent, err)
	}
	projects, err := content.LoadProjects(s.cfg.Content.ProjectsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrReadContent, err)
	}

	type document struct{ path, body string }
	docs := make([]document, 0, len(posts)+len(projects))
	for _, p := range posts {
		docs = append(docs, document{p.Path, p.Body})
	}
	for _, p := range projects {
		docs = append(docs, document{p.Path, p.Body})
	}

	var total md2html.PrerenderResult
	for _, d := range docs {
		res, err := s.renderer.PrerenderDiagrams(ctx, d.body)
		if err != nil {
			return withHint(err)
		}
		if s.flags.common.verbose && res != (md2html.PrerenderResult{}) {
			fmt.Fprintf(s.env.Stdout, "%s: %d rendered, %d cached, %d failed\n", d.path, res.Rendered, res.Cached, res.Failed)
		}
		total.Rendered += res.Rendered
		total.Cached += res.Cached
		total.Failed += res.Failed
	}

	if !s.flags.common.quiet {
		fmt.Fprintf(s.env.Stdout, "Diagrams: %d rendered, %d cached, %d failed (cache: %s)\n",
			total.Rendered, total.Cached, total.Failed, diagramCacheDir(s.cfg))
	}
	if total.Failed > 0 {
		return fmt.Errorf("%d diagram(s) failed", total.Failed)
	}
	return nil
}
