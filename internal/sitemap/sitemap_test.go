package sitemap_test

// Notes:
// - The full document is compared byte for byte; the layout is part of the
//   published output.

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2html/internal/sitemap"
)

// ---------------------------------------------------------------------------
// TestWrite - Static pages then posts
// ---------------------------------------------------------------------------

func TestWrite(t *testing.T) {
	t.Parallel()

	posts := []sitemap.Post{
		{Slug: "hello-world", LastMod: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := sitemap.Write(&buf, "https://example.com/", sitemap.StaticPages[:2], posts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.com/</loc>
    <changefreq>weekly</changefreq>
    <priority>1.0</priority>
  </url>
  <url>
    <loc>https://example.com/blog</loc>
    <changefreq>weekly</changefreq>
    <priority>0.9</priority>
  </url>
  <url>
    <loc>https://example.com/blog/hello-world</loc>
    <lastmod>2024-01-15</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.7</priority>
  </url>
</urlset>
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Write() mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_StaticPages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := sitemap.Write(&buf, "https://example.com", sitemap.StaticPages, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for _, want := range []string{
		"<loc>https://example.com/blog</loc>",
		"<priority>0.9</priority>",
		"<loc>https://example.com/projects</loc>",
	} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if bytes.Contains(buf.Bytes(), []byte("<lastmod>")) {
		t.Error("static pages should have no lastmod")
	}
}

func TestWrite_InvalidBase(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"", "example.com", "ftp://example.com", "https://"} {
		var buf bytes.Buffer
		if err := sitemap.Write(&buf, base, sitemap.StaticPages, nil); !errors.Is(err, sitemap.ErrInvalidBaseURL) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidBaseURL", base, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestWriteRobots - Sitemap pointer
// ---------------------------------------------------------------------------

func TestWriteRobots(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := sitemap.WriteRobots(&buf, "https://example.com/"); err != nil {
		t.Fatalf("WriteRobots() error = %v", err)
	}
	want := "User-agent: *\nAllow: /\n\nSitemap: https://example.com/sitemap.xml\n"
	if buf.String() != want {
		t.Errorf("WriteRobots() = %q, want %q", buf.String(), want)
	}
}
