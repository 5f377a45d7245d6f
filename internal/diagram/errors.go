package diagram

import "errors"

// Sentinel errors for diagram rendering.
var (
	// ErrRender indicates the backend failed to produce an SVG.
	ErrRender = errors.New("diagram render failed")

	// ErrRendererNotFound indicates the mermaid CLI is not installed.
	ErrRendererNotFound = errors.New("mermaid renderer not found")

	// ErrTimeout indicates the backend exceeded its time budget.
	ErrTimeout = errors.New("diagram render timed out")

	// ErrEmptyOutput indicates the backend exited cleanly without output.
	ErrEmptyOutput = errors.New("diagram renderer produced no output")

	// ErrInvalidSVG indicates the output has no <svg>...</svg> element.
	ErrInvalidSVG = errors.New("invalid SVG document")

	// ErrInvalidKey indicates a cache key that is not a SHA-256 hex digest.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrBrowserConnect indicates the headless browser could not be started.
	ErrBrowserConnect = errors.New("browser connection failed")

	// ErrPoolClosed indicates a render was requested after Pool.Close.
	ErrPoolClosed = errors.New("backend pool closed")
)
