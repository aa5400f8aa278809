package report

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// renderToHTML converts the report markdown to sanitized HTML. blackfriday
// does the rendering (CommonExtensions covers the tables the report uses) and
// bluemonday strips anything unsafe, so a hostile log line that leaks into
// the report cannot inject markup.
func renderToHTML(markdown string) string {
	unsafeHTML := blackfriday.Run(
		[]byte(markdown),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs,
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3")
	policy.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("td", "th")

	return string(policy.SanitizeBytes(unsafeHTML))
}
