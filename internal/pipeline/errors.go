package pipeline

import "errors"

// Sentinel errors for the conversion pipeline.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrInvalidBaseURL = errors.New("invalid base URL")
)
