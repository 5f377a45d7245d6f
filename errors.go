package md2html

import "errors"

// Sentinel errors for library operations.
var (
	// ErrSetup wraps a failure to build the highlighting engine or parser.
	ErrSetup = errors.New("renderer setup failed")

	// ErrUnknownBackend is returned for a diagram backend name other than
	// "cli" or "browser".
	ErrUnknownBackend = errors.New("unknown diagram backend")
)
