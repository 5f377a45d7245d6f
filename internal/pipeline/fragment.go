package pipeline

import "html"

// ErrorFragment renders the box shown in place of a document that could
// not be converted.
func ErrorFragment(message string) string {
	return `<div class="error-message p-4 my-4 border-2 border-red-500 bg-red-50 dark:bg-red-900/20 rounded">` +
		`<p class="font-bold text-red-700 dark:text-red-400">Error rendering content</p>` +
		`<pre class="mt-2 text-sm text-red-600 dark:text-red-300">` + html.EscapeString(message) + `</pre>` +
		"</div>\n"
}
