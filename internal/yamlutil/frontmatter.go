package yamlutil

import (
	"strings"
)

const fence = "---"

// SplitFrontmatter separates a leading "---" delimited YAML header from the
// document body. The opening fence must be the first line; the closing fence
// is the next line consisting of "---" alone. Without both, ok is false and
// body is content unchanged.
func SplitFrontmatter(content string) (header, body string, ok bool) {
	content = strings.TrimPrefix(content, "\uFEFF")
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimRight(first, " \t\r") != fence {
		return "", content, false
	}

	offset := 0
	for offset <= len(rest) {
		line, next, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == fence {
			header = rest[:offset]
			if more {
				body = next
			}
			return header, body, true
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}
	return "", content, false
}

// DecodeFrontmatter decodes the frontmatter of content into v and returns the
// body. Content without frontmatter, or with an empty header, leaves v
// untouched. Unknown header keys are ignored.
func DecodeFrontmatter(content string, v any) (body string, err error) {
	header, body, ok := SplitFrontmatter(content)
	if !ok {
		return content, nil
	}
	if strings.TrimSpace(header) == "" {
		return body, nil
	}
	if err := Unmarshal([]byte(header), v); err != nil {
		return "", err
	}
	return body, nil
}
