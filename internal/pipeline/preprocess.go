package pipeline

import (
	"regexp"
	"strings"
)

var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)
)

// bom is the UTF-8 byte order mark some editors prepend.
const bom = "\uFEFF"

// Preprocess prepares raw markdown for parsing: it drops a leading byte
// order mark and converts \r\n and \r line endings to \n.
func Preprocess(content string) string {
	content = strings.TrimPrefix(content, bom)
	return crlfOrCR.ReplaceAllString(content, "\n")
}
