package main

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/hints"
	"github.com/alnah/go-md2html/internal/pipeline"
	"github.com/alnah/go-md2html/internal/sitemap"
)

// Output file names.
const (
	indexFile     = "index.html"
	highlightFile = "highlight.css"
	siteCSSFile   = "site.css"
	sitemapFile   = "sitemap.xml"
	robotsFile    = "robots.txt"
)

// PageResult holds the outcome of rendering a single post.
type PageResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration

	summary postSummary
}

// runBuild renders every post and writes the site.
func runBuild(ctx context.Context, s *session) error {
	start := s.env.Now()
	cfg := s.cfg

	posts, err := loadPosts(s)
	if err != nil {
		return err
	}

	tmpl, err := loadTemplates(s.assets)
	if err != nil {
		return err
	}

	results := renderPosts(ctx, s, tmpl, posts)
	if err := ctx.Err(); err != nil {
		return err
	}
	failed := printResults(results, s.flags.common.quiet, s.flags.common.verbose, s.env)

	summaries := make([]postSummary, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			summaries = append(summaries, r.summary)
		}
	}
	if err := writeIndexes(cfg, tmpl, summaries, content.Tags(posts)); err != nil {
		return err
	}
	if err := writeProjects(ctx, s, tmpl, posts); err != nil {
		return err
	}
	if err := writeStylesheets(ctx, s); err != nil {
		return err
	}
	if err := writeSitemap(s, posts); err != nil {
		return err
	}
	if err := copyStatic(cfg.Content.PostsDir, filepath.Join(cfg.Output.Dir, "blog")); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d page(s) failed", failed)
	}
	s.logger.Debug("site built", "posts", len(results), "output", cfg.Output.Dir, "duration", s.env.Now().Sub(start).Round(time.Millisecond))
	return nil
}

// loadPosts reads the posts directory, warning when it holds no posts.
func loadPosts(s *session) ([]content.Post, error) {
	dir := s.cfg.Content.PostsDir
	posts, err := content.LoadPosts(dir, content.PostOptions{IncludeDrafts: s.cfg.Content.IncludeDrafts})
	if err != nil {
		if errors.Is(err, content.ErrFrontmatter) || errors.Is(err, content.ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrReadContent, err)
	}
	if len(posts) == 0 && !s.flags.common.quiet {
		fmt.Fprintf(s.env.Stderr, "warning: no posts found%s\n", hints.ForNoPosts(dir))
	}
	return posts, nil
}

// renderPosts renders posts concurrently, one page per post. Results keep
// the order of posts.
func renderPosts(ctx context.Context, s *session, tmpl *templates, posts []content.Post) []PageResult {
	if len(posts) == 0 {
		return nil
	}

	concurrency := md2html.ResolvePoolSize(s.cfg.Workers)
	if concurrency > len(posts) {
		concurrency = len(posts)
	}

	results := make([]PageResult, len(posts))
	var wg sync.WaitGroup
	jobs := make(chan int, len(posts))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = PageResult{InputPath: posts[idx].Path, Err: ctx.Err()}
					continue
				}
				results[idx] = renderPost(ctx, s, tmpl, posts[idx])
			}
		}()
	}

	for i := range posts {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderPost renders one post page and returns the result.
func renderPost(ctx context.Context, s *session, tmpl *templates, post content.Post) PageResult {
	start := time.Now()
	cfg := s.cfg
	result := PageResult{
		InputPath:  post.Path,
		OutputPath: filepath.Join(cfg.Output.Dir, filepath.FromSlash(postPath(post.Slug)), indexFile),
	}

	body, err := s.renderer.ParseMarkdown(ctx, post.Body)
	if err != nil {
		result.Err = withHint(err)
		result.Duration = time.Since(start)
		return result
	}
	body, err = pipeline.RewriteRelativeURLs(body, sitePath(cfg, "blog/"))
	if err != nil {
		result.Err = fmt.Errorf("rewriting links: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.summary = summarize(cfg, post, body)
	page := postPage{
		Site:        newSiteView(cfg),
		Root:        "../../",
		Canonical:   canonical(cfg, postPath(post.Slug)),
		Title:       post.Title,
		Description: result.summary.Excerpt,
		Date:        result.summary.Date,
		ISODate:     result.summary.ISODate,
		Tags:        post.Tags,
		Math:        strings.Contains(body, mathMarker),
		Body:        trustedHTML(body),
	}
	if err := executeTemplate(tmpl.post, page, result.OutputPath); err != nil {
		result.Err = err
	}
	result.Duration = time.Since(start)
	return result
}

// sitePath prefixes path with the path component of the site URL.
func sitePath(cfg *config.Config, path string) string {
	prefix := "/"
	if u, err := url.Parse(cfg.Site.URL); err == nil && u.Path != "" {
		prefix = strings.TrimRight(u.Path, "/") + "/"
	}
	return prefix + strings.TrimPrefix(path, "/")
}

// writeIndexes writes the home page and the blog index.
func writeIndexes(cfg *config.Config, tmpl *templates, posts []postSummary, tags []string) error {
	pages := []struct {
		root, path string
	}{
		{root: "", path: ""},
		{root: "../", path: "blog/"},
	}
	for _, p := range pages {
		data := indexPage{
			Site:      newSiteView(cfg),
			Root:      p.root,
			Canonical: canonical(cfg, p.path),
			Title:     cmp.Or(cfg.Site.Title, "Blog"),
			Tags:      tags,
			Posts:     posts,
		}
		out := filepath.Join(cfg.Output.Dir, filepath.FromSlash(p.path), indexFile)
		if err := executeTemplate(tmpl.index, data, out); err != nil {
			return err
		}
	}
	return nil
}

// writeProjects renders the projects page. A missing projects directory
// skips the page. Write-up links only point at posts being built.
func writeProjects(ctx context.Context, s *session, tmpl *templates, posts []content.Post) error {
	cfg := s.cfg
	projects, err := content.LoadProjects(cfg.Content.ProjectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no projects directory", "dir", cfg.Content.ProjectsDir)
			return nil
		}
		if errors.Is(err, content.ErrFrontmatter) || errors.Is(err, content.ErrInvalidState) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrReadContent, err)
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		body, err := s.renderer.ParseMarkdown(ctx, p.Body)
		if err != nil {
			return withHint(err)
		}
		v := projectView{
			Slug:        p.Slug,
			Title:       p.Title,
			URL:         cmp.Or(p.LiveURL, p.GitHubURL),
			Description: p.Description,
			Tags:        p.Technologies,
			Body:        trustedHTML(body),
		}
		if p.LiveURL != "" {
			v.SourceURL = p.GitHubURL
		}
		if p.BlogPostSlug != "" {
			if post, err := content.FindPost(posts, p.BlogPostSlug); err == nil {
				v.PostURL = postPath(post.Slug)
			} else {
				s.logger.Warn("project links a missing post", "project", p.Slug, "post", p.BlogPostSlug)
			}
		}
		views = append(views, v)
	}

	data := projectsPage{
		Site:      newSiteView(cfg),
		Root:      "../",
		Canonical: canonical(cfg, "projects/"),
		Title:     "Projects",
		Projects:  views,
	}
	return executeTemplate(tmpl.projects, data, filepath.Join(cfg.Output.Dir, "projects", indexFile))
}

// writeStylesheets writes the highlight and site stylesheets.
func writeStylesheets(ctx context.Context, s *session) error {
	css, err := s.renderer.Stylesheet(ctx)
	if err != nil {
		return withHint(err)
	}
	if err := writeOutput(filepath.Join(s.cfg.Output.Dir, highlightFile), []byte(css)); err != nil {
		return err
	}

	site, err := s.assets.LoadStyle(assets.StyleSite)
	if err != nil {
		return fmt.Errorf("loading site style: %w", err)
	}
	return writeOutput(filepath.Join(s.cfg.Output.Dir, siteCSSFile), []byte(site))
}

// writeSitemap writes sitemap.xml and robots.txt for the published posts.
// Both need an absolute site URL and are skipped without one.
func writeSitemap(s *session, posts []content.Post) error {
	cfg := s.cfg
	if cfg.Site.URL == "" {
		if !s.flags.common.quiet {
			fmt.Fprintln(s.env.Stderr, "warning: site.url not set, skipping sitemap.xml and robots.txt")
		}
		return nil
	}

	entries := make([]sitemap.Post, 0, len(posts))
	for _, p := range posts {
		if p.Published() {
			entries = append(entries, sitemap.Post{Slug: p.Slug, LastMod: p.Date})
		}
	}

	var buf bytes.Buffer
	if err := sitemap.Write(&buf, cfg.Site.URL, sitemap.StaticPages, entries); err != nil {
		return err
	}
	if err := writeOutput(filepath.Join(cfg.Output.Dir, sitemapFile), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := sitemap.WriteRobots(&buf, cfg.Site.URL); err != nil {
		return err
	}
	return writeOutput(filepath.Join(cfg.Output.Dir, robotsFile), buf.Bytes())
}

// copyStatic copies every non-markdown, non-hidden file under src to dst,
// keeping relative paths. Images referenced by posts resolve there.
func copyStatic(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != src && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || fileutil.IsMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the content directory
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadContent, err)
		}
		return writeOutput(filepath.Join(dst, rel), data)
	})
}

// printResults outputs per-page results and returns the failure count.
func printResults(results []PageResult, quiet, verbose bool, env *Environment) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed
}
