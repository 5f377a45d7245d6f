package content

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/slug"
	"github.com/alnah/go-md2html/internal/yamlutil"
)

// DefaultProjectTitle is used when a project has no title in its frontmatter.
const DefaultProjectTitle = "Untitled Project"

// Project is a portfolio entry.
type Project struct {
	Slug         string
	Title        string
	Description  string
	Technologies []string
	State        State
	GitHubURL    string
	LiveURL      string
	ImageURL     string
	BlogPostSlug string
	Order        *int // nil sorts after every ordered project
	Path         string
	Body         string
}

// projectHeader is the frontmatter of a project.
type projectHeader struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	State        string   `yaml:"state"`
	GitHubURL    string   `yaml:"githubUrl"`
	LiveURL      string   `yaml:"liveUrl"`
	ImageURL     string   `yaml:"imageUrl"`
	BlogPostSlug string   `yaml:"blogPostSlug"`
	Order        *int     `yaml:"order"`
}

// LoadProjects reads the published projects in dir. README files are
// skipped. Projects without an explicit published state are dropped.
func LoadProjects(dir string) ([]Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading projects directory: %w", err)
	}

	var projects []Project
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !fileutil.IsMarkdown(name) || strings.EqualFold(name, "readme.md") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the content directory
		if err != nil {
			return nil, fmt.Errorf("reading project: %w", err)
		}

		var h projectHeader
		body, err := yamlutil.DecodeFrontmatter(string(data), &h)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFrontmatter, path, err)
		}
		state, err := parseState(h.State, StateDraft)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFrontmatter, path, err)
		}
		if state != StatePublished {
			continue
		}

		projects = append(projects, Project{
			Slug:         slug.Slugify(strings.TrimSuffix(name, filepath.Ext(name))),
			Title:        cmp.Or(strings.TrimSpace(h.Title), DefaultProjectTitle),
			Description:  h.Description,
			Technologies: h.Technologies,
			State:        state,
			GitHubURL:    h.GitHubURL,
			LiveURL:      h.LiveURL,
			ImageURL:     h.ImageURL,
			BlogPostSlug: h.BlogPostSlug,
			Order:        h.Order,
			Path:         path,
			Body:         body,
		})
	}

	SortProjects(projects)
	return projects, nil
}

// SortProjects orders projects by Order ascending, unordered projects last,
// then alphabetically by title.
func SortProjects(projects []Project) {
	slices.SortStableFunc(projects, func(a, b Project) int {
		switch {
		case a.Order != nil && b.Order != nil:
			if c := cmp.Compare(*a.Order, *b.Order); c != 0 {
				return c
			}
		case a.Order != nil:
			return -1
		case b.Order != nil:
			return 1
		}
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
}
