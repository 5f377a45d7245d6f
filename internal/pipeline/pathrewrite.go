package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativeURLs resolves relative img[src] and a[href] references
// in an HTML fragment against base, usually the page's own URL path such
// as "/blog/hello-world/". If base is empty, the HTML is returned
// unchanged.
//
// Only the rewritten tags are re-serialized. Every other byte, including
// inline SVG and math, passes through untouched.
//
// Does NOT rewrite:
//   - anchors, absolute paths, and URLs with a scheme or host
//   - srcset attributes
//   - CSS url() references
func RewriteRelativeURLs(htmlContent, base string) (string, error) {
	if base == "" {
		return htmlContent, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}

	var out strings.Builder
	out.Grow(len(htmlContent))
	z := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return out.String(), nil
			}
			return "", z.Err()
		}
		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		if !rewriteToken(&tok, baseURL) {
			out.Write(raw)
			continue
		}
		out.WriteString(tok.String())
	}
}

// rewriteToken resolves the URL attribute of img and a tags. It reports
// whether the token changed.
func rewriteToken(tok *html.Token, base *url.URL) bool {
	var key string
	switch tok.DataAtom {
	case atom.Img:
		key = "src"
	case atom.A:
		key = "href"
	default:
		return false
	}

	changed := false
	for i, attr := range tok.Attr {
		if attr.Namespace != "" || attr.Key != key || !isRelativeURL(attr.Val) {
			continue
		}
		ref, err := url.Parse(attr.Val)
		if err != nil {
			continue // leave malformed references alone
		}
		tok.Attr[i].Val = base.ResolveReference(ref).String()
		changed = true
	}
	return changed
}

// isRelativeURL returns true if the reference should be resolved.
func isRelativeURL(ref string) bool {
	if ref == "" {
		return false
	}

	// Skip anchors, absolute paths and protocol-relative URLs
	if strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") {
		return false
	}

	// Skip anything with a scheme (http, https, mailto, data, file)
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" {
		return false
	}
	return true
}

// Excerpt returns up to maxRunes of paragraph text from an HTML fragment,
// cut at a word boundary and suffixed with an ellipsis when shortened.
// Text outside <p> elements, such as code and diagrams, is ignored. A
// maxRunes of zero or less returns all paragraph text.
func Excerpt(htmlContent string, maxRunes int) string {
	var text strings.Builder
	depth := 0
	z := html.NewTokenizer(strings.NewReader(htmlContent))

loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			break loop
		case html.StartTagToken:
			if name, _ := z.TagName(); bytes.Equal(name, []byte("p")) {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); bytes.Equal(name, []byte("p")) && depth > 0 {
				depth--
				text.WriteByte(' ')
			}
		case html.TextToken:
			if depth > 0 {
				text.Write(z.Text())
			}
		}
	}

	words := strings.Fields(text.String())
	full := strings.Join(words, " ")
	if maxRunes <= 0 || len([]rune(full)) <= maxRunes {
		return full
	}

	// Drop words until the text fits with room for the ellipsis.
	for len(words) > 1 {
		words = words[:len(words)-1]
		if len([]rune(strings.Join(words, " ")))+1 <= maxRunes {
			break
		}
	}
	s := strings.Join(words, " ")
	if r := []rune(s); len(r) >= maxRunes {
		s = string(r[:maxRunes-1])
	}
	return strings.TrimRight(s, ",;:.") + "…"
}
