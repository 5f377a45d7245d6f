package assets

// Built-in asset names.
const (
	StyleSite        = "site"
	StyleMermaidDark = "mermaid-dark"

	TemplatePost     = "post"
	TemplateIndex    = "index"
	TemplateProjects = "projects"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
// The name should not include the .css extension or path components.
// Returns ErrStyleNotFound if the style does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an HTML template by name using the default embedded loader.
// Returns ErrTemplateNotFound if the template does not exist.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// MustLoadStyle loads a built-in style and panics if it is missing.
// Only use with the Style* constants.
func MustLoadStyle(name string) string {
	s, err := LoadStyle(name)
	if err != nil {
		panic(err)
	}
	return s
}
