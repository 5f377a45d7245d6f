package highlight

import "errors"

// Sentinel errors for engine construction and highlighting.
var (
	// ErrUnknownTheme indicates a configured style is not registered with chroma.
	ErrUnknownTheme = errors.New("unknown highlight theme")

	// ErrUnknownLanguage indicates a configured language has no chroma lexer.
	ErrUnknownLanguage = errors.New("unknown highlight language")

	// ErrUnsupportedLanguage indicates a code block asked for a language the
	// engine did not load.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrNoLanguages indicates the engine was configured without languages.
	ErrNoLanguages = errors.New("no languages configured")
)
