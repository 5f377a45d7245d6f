package main

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/dateutil"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// katexCSS styles and loads fonts for the KaTeX markup in pages with math.
const katexCSS = "https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.css"

// excerptRunes bounds excerpts derived from a post body.
const excerptRunes = 200

// mathMarker appears in every fragment that holds math.
const mathMarker = `class="math math-`

// siteView is the site-wide part of every page.
type siteView struct {
	Title       string
	Description string
	Language    string
	KaTeXCSS    string
}

// postPage is the data of the post template.
type postPage struct {
	Site        siteView
	Root        string
	Canonical   string
	Title       string
	Description string
	Date        string
	ISODate     string
	Tags        []string
	Math        bool
	Body        template.HTML
}

// postSummary is one entry of the post index.
type postSummary struct {
	Slug    string
	Title   string
	Date    string
	ISODate string
	Excerpt string
}

// indexPage is the data of the index template.
type indexPage struct {
	Site      siteView
	Root      string
	Canonical string
	Title     string
	Tags      []string
	Posts     []postSummary
}

// projectView is one project of the projects page.
type projectView struct {
	Slug        string
	Title       string
	URL         string
	SourceURL   string
	PostURL     string
	Description string
	Tags        []string
	Body        template.HTML
}

// projectsPage is the data of the projects template.
type projectsPage struct {
	Site      siteView
	Root      string
	Canonical string
	Title     string
	Projects  []projectView
}

// templates holds the parsed page templates.
type templates struct {
	post     *template.Template
	index    *template.Template
	projects *template.Template
}

// loadTemplates parses the page templates from loader.
func loadTemplates(loader assets.AssetLoader) (*templates, error) {
	parse := func(name string) (*template.Template, error) {
		src, err := loader.LoadTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("loading %s template: %w", name, err)
		}
		t, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		return t, nil
	}

	var (
		t   templates
		err error
	)
	if t.post, err = parse(assets.TemplatePost); err != nil {
		return nil, err
	}
	if t.index, err = parse(assets.TemplateIndex); err != nil {
		return nil, err
	}
	if t.projects, err = parse(assets.TemplateProjects); err != nil {
		return nil, err
	}
	return &t, nil
}

// newSiteView builds the site-wide template data.
func newSiteView(cfg *config.Config) siteView {
	return siteView{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Language:    cfg.Site.Language,
		KaTeXCSS:    katexCSS,
	}
}

// canonical returns the absolute URL of a site path, or the path itself
// when no site URL is configured.
func canonical(cfg *config.Config, path string) string {
	base := strings.TrimRight(cfg.Site.URL, "/")
	return base + "/" + strings.TrimPrefix(path, "/")
}

// postPath is the site path of a post page.
func postPath(slug string) string {
	return "blog/" + url.PathEscape(slug) + "/"
}

// displayDate formats t with the configured date format.
func displayDate(cfg *config.Config, t time.Time) string {
	s, err := dateutil.Format(t, cfg.Site.DateFormat)
	if err != nil {
		return t.Format(dateutil.ISODate)
	}
	return s
}

// summarize builds the index entry of a rendered post.
func summarize(cfg *config.Config, p content.Post, body string) postSummary {
	excerpt := p.Excerpt
	if excerpt == "" {
		excerpt = pipeline.Excerpt(body, excerptRunes)
	}
	return postSummary{
		Slug:    p.Slug,
		Title:   p.Title,
		Date:    displayDate(cfg, p.Date),
		ISODate: p.Date.Format(dateutil.ISODate),
		Excerpt: excerpt,
	}
}

// executeTemplate renders t with data and writes the result atomically to
// path, creating parent directories.
func executeTemplate(t *template.Template, data any, path string) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering %s: %w", filepath.Base(path), err)
	}
	return writeOutput(path, buf.Bytes())
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrWriteOutput, filepath.Dir(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	return nil
}

// trustedHTML marks a rendered fragment as safe for templates.
func trustedHTML(s string) template.HTML {
	return template.HTML(s) // #nosec G203 -- fragment produced by the markdown renderer
}
