package markdown

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

// ToHTML renders forum Markdown to HTML.
//
// Raw HTML blocks and inline tags in user content are skipped by the
// renderer itself (SkipHTML), so nested or malformed tags never reach the
// output. Safelink keeps javascript: and similar schemes out of hrefs.
func ToHTML(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.NoreferrerLinks | blackfriday.HrefTargetBlank,
	})
	html := blackfriday.Run(
		[]byte(markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(renderer),
	)
	return strings.TrimSpace(string(html))
}
