// Package sitemap builds sitemap.xml and robots.txt for the site.
package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/dateutil"
)

// Namespace is the sitemap protocol XML namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrInvalidBaseURL is returned for a base URL that is not absolute http(s).
var ErrInvalidBaseURL = errors.New("invalid sitemap base URL")

// ChangeFreq is a sitemap change frequency.
type ChangeFreq string

// Change frequencies used by the site.
const (
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

// Page is a static page entry. Path is relative to the site root; "" is
// the home page.
type Page struct {
	Path       string
	ChangeFreq ChangeFreq
	Priority   float64
}

// StaticPages are the fixed pages the build writes.
var StaticPages = []Page{
	{Path: "", ChangeFreq: Weekly, Priority: 1.0},
	{Path: "blog", ChangeFreq: Weekly, Priority: 0.9},
	{Path: "projects", ChangeFreq: Monthly, Priority: 0.8},
}

// Post is a blog post entry, served at /blog/{Slug}.
type Post struct {
	Slug    string
	LastMod time.Time
}

// Post entry settings.
const (
	postChangeFreq = Monthly
	postPriority   = 0.7
)

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq"`
	Priority   string     `xml:"priority"`
}

// Write encodes the sitemap for pages and posts under baseURL.
// Entries keep the order given: pages first, then posts.
func Write(w io.Writer, baseURL string, pages []Page, posts []Post) error {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return err
	}

	set := urlSet{Xmlns: Namespace}
	for _, p := range pages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + "/" + strings.TrimPrefix(p.Path, "/"),
			ChangeFreq: p.ChangeFreq,
			Priority:   formatPriority(p.Priority),
		})
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + "/blog/" + url.PathEscape(p.Slug),
			LastMod:    p.LastMod.Format(dateutil.ISODate),
			ChangeFreq: postChangeFreq,
			Priority:   formatPriority(postPriority),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encoding sitemap: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteRobots writes a robots.txt allowing every crawler and pointing at
// the sitemap.
func WriteRobots(w io.Writer, baseURL string) error {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", base)
	return err
}

// normalizeBase validates baseURL and strips its trailing slash.
func normalizeBase(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return strings.TrimRight(baseURL, "/"), nil
}

func formatPriority(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
