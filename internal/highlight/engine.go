package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Default themes and languages.
const (
	DefaultDarkTheme   = "catppuccin-mocha"
	DefaultLightTheme  = "catppuccin-latte"
	DefaultClassPrefix = "hl-"
)

// DefaultLanguages lists the grammars loaded when Config.Languages is empty.
var DefaultLanguages = []string{
	"bash", "cpp", "csharp", "css", "haskell", "html", "ini", "javascript",
	"json", "latex", "markdown", "python", "rust", "text", "toml", "typescript",
}

// Config describes the styles and lexers an Engine loads.
type Config struct {
	// DarkTheme is always loaded and is the only theme in single mode.
	DarkTheme string

	// LightTheme enables dual-theme output when set.
	LightTheme string

	// Languages are chroma lexer names or aliases.
	Languages []string

	// ClassPrefix prefixes token classes in dual mode.
	ClassPrefix string

	// Substitutions overrides the light-theme colour table. Keys and values
	// are #rrggbb. Nil selects the built-in table for the light theme.
	Substitutions map[string]string

	// TabWidth is passed to the formatter. Zero keeps chroma's default.
	TabWidth int
}

// DefaultConfig returns a dual-theme configuration with the default languages.
func DefaultConfig() Config {
	return Config{
		DarkTheme:   DefaultDarkTheme,
		LightTheme:  DefaultLightTheme,
		Languages:   DefaultLanguages,
		ClassPrefix: DefaultClassPrefix,
	}
}

// Engine converts source code to highlighted HTML. It is immutable after
// New returns and safe for concurrent use.
type Engine struct {
	lexers    map[string]chroma.Lexer
	names     []string
	dark      *chroma.Style
	light     *chroma.Style
	formatter *chromahtml.Formatter
	prefix    string
	subs      map[string]chroma.Colour
}

// New loads the configured styles and lexers.
// Returns ErrUnknownTheme or ErrUnknownLanguage when a name does not resolve.
func New(cfg Config) (*Engine, error) {
	if cfg.DarkTheme == "" {
		cfg.DarkTheme = DefaultDarkTheme
	}
	if len(cfg.Languages) == 0 {
		return nil, ErrNoLanguages
	}

	dark, err := lookupStyle(cfg.DarkTheme)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		lexers: make(map[string]chroma.Lexer),
		dark:   dark,
		prefix: cfg.ClassPrefix,
	}

	if cfg.LightTheme != "" {
		if e.light, err = lookupStyle(cfg.LightTheme); err != nil {
			return nil, err
		}
		table := cfg.Substitutions
		if table == nil {
			table = substitutionsFor(cfg.LightTheme)
		}
		e.subs = make(map[string]chroma.Colour, len(table))
		for from, to := range table {
			c, err := parseColour(to)
			if err != nil {
				return nil, fmt.Errorf("substitution for %s: %w", from, err)
			}
			e.subs[strings.ToLower(from)] = c
		}
	}

	for _, name := range cfg.Languages {
		if err := e.register(name); err != nil {
			return nil, err
		}
	}
	sort.Strings(e.names)

	opts := []chromahtml.Option{chromahtml.WithClasses(e.light != nil)}
	if e.light != nil {
		opts = append(opts, chromahtml.ClassPrefix(e.prefix))
	}
	if cfg.TabWidth > 0 {
		opts = append(opts, chromahtml.TabWidth(cfg.TabWidth))
	}
	e.formatter = chromahtml.New(opts...)

	return e, nil
}

// Themes returns the registered chroma style names, sorted.
func Themes() []string {
	return styles.Names()
}

// lookupStyle resolves a chroma style without falling back to the default.
func lookupStyle(name string) (*chroma.Style, error) {
	if s, ok := styles.Registry[name]; ok {
		return s, nil
	}
	if s, ok := styles.Registry[strings.ToLower(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
}

// register loads a lexer and indexes it by the requested name, its canonical
// name and its aliases.
func (e *Engine) register(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	lexer := lexers.Get(key)
	if lexer == nil {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	lexer = chroma.Coalesce(lexer)
	e.names = append(e.names, key)

	keys := []string{key, strings.ToLower(lexer.Config().Name)}
	for _, alias := range lexer.Config().Aliases {
		keys = append(keys, strings.ToLower(alias))
	}
	for _, k := range keys {
		if _, taken := e.lexers[k]; !taken {
			e.lexers[k] = lexer
		}
	}
	return nil
}

// Dual reports whether the engine emits class-based markup for two themes.
func (e *Engine) Dual() bool {
	return e.light != nil
}

// Languages returns the configured language names, sorted.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.names...)
}

// Supports reports whether lang resolves to a loaded lexer.
func (e *Engine) Supports(lang string) bool {
	_, ok := e.lexers[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Highlight renders code as a <pre> block for lang.
// Returns ErrUnsupportedLanguage when lang was not loaded.
func (e *Engine) Highlight(code, lang string) (string, error) {
	lexer, ok := e.lexers[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising %s: %w", lang, err)
	}

	var b strings.Builder
	if err := e.formatter.Format(&b, e.dark, iterator); err != nil {
		return "", fmt.Errorf("formatting %s: %w", lang, err)
	}
	return b.String(), nil
}
