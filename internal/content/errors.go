package content

import "errors"

// Sentinel errors for content loading.
var (
	ErrNotPostFile  = errors.New("not a dated post file")
	ErrInvalidState = errors.New("invalid publication state")
	ErrFrontmatter  = errors.New("invalid frontmatter")
	ErrPostNotFound = errors.New("post not found")
)
