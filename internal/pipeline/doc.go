// Package pipeline implements the Markdown-to-HTML conversion pipeline.
//
// A Markdown value wraps one goldmark instance configured with:
//   - GFM and footnotes
//   - inline and display math, rendered to KaTeX HTML
//   - a heading renderer that derives anchor ids from plain heading text
//   - a code-block renderer that delegates to a Highlighter and falls back
//     to escaped <pre><code> on failure
//   - diagram blocks, rendered out of band before the AST is written
//
// Conversion never fails because of one bad block: highlight and diagram
// failures are contained to the block that caused them.
package pipeline
