// Package assets provides the stylesheets and page templates used to build
// the site around rendered markdown. Assets can be loaded from embedded files
// or overridden from a directory on disk.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the build command. It tries the
// custom FilesystemLoader first and falls back to EmbeddedLoader when the
// asset is not found, so a site can override one template and keep the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   ├── site.css            # page styling
//	│   └── mermaid-dark.css    # dark palette injected into diagram SVGs
//	└── templates/
//	    ├── post.html           # one blog post
//	    ├── index.html          # post listing
//	    └── projects.html       # project listing
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
