// Package slug derives URL-safe anchor identifiers from heading text.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	disallowedPattern = regexp.MustCompile(`[^\w\s-]`)
	spacePattern      = regexp.MustCompile(`\s+`)
	hyphenPattern     = regexp.MustCompile(`-+`)
)

// Slugify lowercases text, strips HTML tags and anything outside word
// characters, whitespace and hyphens, then joins words with single hyphens.
// The result never starts or ends with a hyphen and may be empty.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = tagPattern.ReplaceAllString(s, "")
	s = disallowedPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = spacePattern.ReplaceAllString(s, "-")
	s = hyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Set hands out unique ids within one document by suffixing repeats with
// -2, -3 and so on. The zero value is ready to use. A Set is not safe for
// concurrent use.
type Set struct {
	seen map[string]int
}

// Unique returns id the first time it is seen and a suffixed variant after.
// Empty ids are returned unchanged.
func (s *Set) Unique(id string) string {
	if id == "" {
		return id
	}
	if s.seen == nil {
		s.seen = make(map[string]int)
	}
	n, ok := s.seen[id]
	if !ok {
		s.seen[id] = 1
		return id
	}
	for {
		n++
		candidate := id + "-" + strconv.Itoa(n)
		if _, taken := s.seen[candidate]; !taken {
			s.seen[id] = n
			s.seen[candidate] = 1
			return candidate
		}
	}
}
