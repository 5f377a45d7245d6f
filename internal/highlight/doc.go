// Package highlight owns the syntax highlighting engine.
//
// An Engine is built from a fixed set of chroma styles and lexers and is
// immutable afterwards. A Provider builds the Engine lazily and at most once,
// however many goroutines ask for it concurrently.
//
// Two output modes exist. Single-theme mode inlines the dark theme's colors.
// Dual-theme mode emits class-only markup; Stylesheet then maps each class
// to CSS custom properties whose values switch between the light and dark
// theme with prefers-color-scheme or a .dark ancestor.
package highlight
