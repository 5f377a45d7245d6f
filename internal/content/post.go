package content

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/dateutil"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/yamlutil"
)

// DefaultPostTitle is used when a post has no title in its frontmatter.
const DefaultPostTitle = "Untitled"

// Post is a blog post with its frontmatter resolved.
type Post struct {
	Slug    string
	Title   string
	Date    time.Time
	Excerpt string
	Tags    []string
	State   State
	Path    string // Source file
	Body    string // Markdown after the frontmatter
}

// Published reports whether the post is public.
func (p Post) Published() bool { return p.State == StatePublished }

// postHeader is the frontmatter of a post.
type postHeader struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Excerpt string   `yaml:"excerpt"`
	Tags    []string `yaml:"tags"`
	State   string   `yaml:"state"`
}

// PostOptions controls which posts LoadPosts returns.
type PostOptions struct {
	IncludeDrafts bool
}

// LoadPost reads one post file. The file name must be YYYY-MM-DD-slug.md.
// A missing state means published; a missing date falls back to the file
// name date.
func LoadPost(path string) (Post, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fileDate, slug, ok := dateutil.SplitFilename(name)
	if !ok || !fileutil.IsMarkdown(path) {
		return Post{}, fmt.Errorf("%w: %s", ErrNotPostFile, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the content directory
	if err != nil {
		return Post{}, fmt.Errorf("reading post: %w", err)
	}

	var h postHeader
	body, err := yamlutil.DecodeFrontmatter(string(data), &h)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", ErrFrontmatter, path, err)
	}

	post := Post{
		Slug:    slug,
		Title:   cmp.Or(strings.TrimSpace(h.Title), DefaultPostTitle),
		Date:    fileDate,
		Excerpt: h.Excerpt,
		Tags:    h.Tags,
		Path:    path,
		Body:    body,
	}
	if h.Date != "" {
		post.Date, err = dateutil.ParsePostDate(h.Date)
		if err != nil {
			return Post{}, fmt.Errorf("%w: %s: %v", ErrFrontmatter, path, err)
		}
	}
	post.State, err = parseState(h.State, StatePublished)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", ErrFrontmatter, path, err)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return post, nil
}

// LoadPosts reads every dated post in dir, newest first. Files that are not
// named YYYY-MM-DD-slug.md are skipped. Drafts are dropped unless
// opts.IncludeDrafts is set.
func LoadPosts(dir string, opts PostOptions) ([]Post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading posts directory: %w", err)
	}

	var posts []Post
	for _, e := range entries {
		if e.IsDir() || !fileutil.IsMarkdown(e.Name()) {
			continue
		}
		post, err := LoadPost(filepath.Join(dir, e.Name()))
		if err != nil {
			if errors.Is(err, ErrNotPostFile) {
				continue
			}
			return nil, err
		}
		if !post.Published() && !opts.IncludeDrafts {
			continue
		}
		posts = append(posts, post)
	}

	SortPosts(posts)
	return posts, nil
}

// SortPosts orders posts by date descending, then by slug for equal dates.
func SortPosts(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}

// FindPost returns the post with slug.
func FindPost(posts []Post, slug string) (Post, error) {
	i := slices.IndexFunc(posts, func(p Post) bool { return p.Slug == slug })
	if i < 0 {
		return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
	}
	return posts[i], nil
}

// Tags returns every tag used by posts, sorted, without duplicates.
func Tags(posts []Post) []string {
	var tags []string
	for _, p := range posts {
		tags = append(tags, p.Tags...)
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}
