package content_test

// Notes:
// - Every test builds its own content tree under t.TempDir().

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2html/internal/content"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ---------------------------------------------------------------------------
// TestLoadPost - Frontmatter defaults and overrides
// ---------------------------------------------------------------------------

func TestLoadPost(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"2024-01-15-hello-world.md": "---\ntitle: Hello\ndate: 2024-02-01\nexcerpt: First post\ntags: [go, blog]\n---\n# Hello\n",
		"2024-03-01-bare.md":        "Just text.\n",
		"2024-03-02-draft.md":       "---\nstate: Draft\n---\nWIP\n",
		"2024-03-03-bad-state.md":   "---\nstate: archived\n---\n",
		"2024-03-04-bad-date.md":    "---\ndate: yesterday\n---\n",
		"notes.md":                  "# Notes\n",
	})

	t.Run("frontmatter wins", func(t *testing.T) {
		t.Parallel()

		got, err := content.LoadPost(filepath.Join(dir, "2024-01-15-hello-world.md"))
		if err != nil {
			t.Fatalf("LoadPost() error = %v", err)
		}
		want := content.Post{
			Slug:    "hello-world",
			Title:   "Hello",
			Date:    day("2024-02-01"),
			Excerpt: "First post",
			Tags:    []string{"go", "blog"},
			State:   content.StatePublished,
			Path:    filepath.Join(dir, "2024-01-15-hello-world.md"),
			Body:    "# Hello\n",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("LoadPost() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("defaults from file name", func(t *testing.T) {
		t.Parallel()

		got, err := content.LoadPost(filepath.Join(dir, "2024-03-01-bare.md"))
		if err != nil {
			t.Fatalf("LoadPost() error = %v", err)
		}
		if got.Title != content.DefaultPostTitle {
			t.Errorf("Title = %q, want %q", got.Title, content.DefaultPostTitle)
		}
		if !got.Date.Equal(day("2024-03-01")) {
			t.Errorf("Date = %v, want 2024-03-01", got.Date)
		}
		if !got.Published() {
			t.Error("post without state should be published")
		}
		if got.Tags == nil {
			t.Error("Tags = nil, want empty slice")
		}
	})

	t.Run("state is case insensitive", func(t *testing.T) {
		t.Parallel()

		got, err := content.LoadPost(filepath.Join(dir, "2024-03-02-draft.md"))
		if err != nil {
			t.Fatalf("LoadPost() error = %v", err)
		}
		if got.State != content.StateDraft {
			t.Errorf("State = %q, want draft", got.State)
		}
	})

	errTests := []struct {
		file    string
		wantErr error
	}{
		{file: "2024-03-03-bad-state.md", wantErr: content.ErrFrontmatter},
		{file: "2024-03-04-bad-date.md", wantErr: content.ErrFrontmatter},
		{file: "notes.md", wantErr: content.ErrNotPostFile},
	}
	for _, tt := range errTests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()

			_, err := content.LoadPost(filepath.Join(dir, tt.file))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadPost(%s) error = %v, want %v", tt.file, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadPosts - Discovery, draft gate and ordering
// ---------------------------------------------------------------------------

func TestLoadPosts(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"2023-05-01-older.md":    "---\ntitle: Older\n---\n",
		"2024-01-15-newer.md":    "---\ntitle: Newer\n---\n",
		"2024-01-15-same-day.md": "---\ntitle: Same day\n---\n",
		"2024-06-01-draft.md":    "---\nstate: draft\n---\n",
		"README.md":              "not a post",
		"image.png":              "binary",
		"sub/2024-01-01-x.md":    "nested posts are ignored",
	})

	slugs := func(posts []content.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.Slug
		}
		return out
	}

	published, err := content.LoadPosts(dir, content.PostOptions{})
	if err != nil {
		t.Fatalf("LoadPosts() error = %v", err)
	}
	if diff := cmp.Diff([]string{"newer", "same-day", "older"}, slugs(published)); diff != "" {
		t.Errorf("published posts mismatch (-want +got):\n%s", diff)
	}

	all, err := content.LoadPosts(dir, content.PostOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("LoadPosts() error = %v", err)
	}
	if diff := cmp.Diff([]string{"draft", "newer", "same-day", "older"}, slugs(all)); diff != "" {
		t.Errorf("all posts mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPosts_Errors(t *testing.T) {
	t.Parallel()

	if _, err := content.LoadPosts(filepath.Join(t.TempDir(), "missing"), content.PostOptions{}); err == nil {
		t.Error("LoadPosts() on missing dir: error = nil")
	}

	dir := writeFiles(t, map[string]string{"2024-01-01-broken.md": "---\ntitle: [oops\n---\n"})
	if _, err := content.LoadPosts(dir, content.PostOptions{}); !errors.Is(err, content.ErrFrontmatter) {
		t.Errorf("LoadPosts() error = %v, want ErrFrontmatter", err)
	}
}

func TestFindPostAndTags(t *testing.T) {
	t.Parallel()

	posts := []content.Post{
		{Slug: "a", Tags: []string{"go", "yaml"}},
		{Slug: "b", Tags: []string{"math", "go"}},
	}

	got, err := content.FindPost(posts, "b")
	if err != nil || got.Slug != "b" {
		t.Errorf("FindPost(b) = %+v, %v", got, err)
	}
	if _, err := content.FindPost(posts, "zzz"); !errors.Is(err, content.ErrPostNotFound) {
		t.Errorf("FindPost(zzz) error = %v, want ErrPostNotFound", err)
	}
	if diff := cmp.Diff([]string{"go", "math", "yaml"}, content.Tags(posts)); diff != "" {
		t.Errorf("Tags() mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestLoadProjects - Published gate and ordering
// ---------------------------------------------------------------------------

func TestLoadProjects(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"zeta.md":     "---\ntitle: Zeta\nstate: published\n---\n",
		"alpha.md":    "---\ntitle: alpha\nstate: published\n---\n",
		"second.md":   "---\ntitle: Second\nstate: published\norder: 2\n---\n",
		"first.md":    "---\ntitle: First\nstate: published\norder: 1\ntechnologies: [Go]\ngithubUrl: https://github.com/x/first\n---\nBody\n",
		"hidden.md":   "---\ntitle: Hidden\nstate: draft\n---\n",
		"no-state.md": "---\ntitle: No state\n---\n",
		"readme.md":   "---\nstate: published\n---\n",
		"Untitled.md": "---\nstate: published\n---\n",
	})

	projects, err := content.LoadProjects(dir)
	if err != nil {
		t.Fatalf("LoadProjects() error = %v", err)
	}

	var titles []string
	for _, p := range projects {
		titles = append(titles, p.Title)
	}
	want := []string{"First", "Second", "alpha", "Untitled Project", "Zeta"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("project order mismatch (-want +got):\n%s", diff)
	}

	first := projects[0]
	if first.Slug != "first" || first.GitHubURL != "https://github.com/x/first" || first.Body != "Body\n" {
		t.Errorf("first project = %+v", first)
	}
	if diff := cmp.Diff([]string{"Go"}, first.Technologies); diff != "" {
		t.Errorf("Technologies mismatch (-want +got):\n%s", diff)
	}
}
