// Package content discovers blog posts and projects on disk.
//
// Posts live in one flat directory as YYYY-MM-DD-slug.md files with an
// optional YAML frontmatter header. Projects are markdown files whose
// frontmatter describes a portfolio entry; only published projects are kept.
package content
