package render

import (
	"github.com/microcosm-cc/bluemonday"
	blackfriday "gopkg.in/russross/blackfriday.v2"
)

var ugcPolicy = bluemonday.UGCPolicy()

// DescriptionToHTML renders a user-supplied markdown job description into
// sanitised HTML. Links open in a new tab and never pass referrer or rank.
func DescriptionToHTML(s string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	html := blackfriday.Run([]byte(s), blackfriday.WithRenderer(renderer))
	return string(ugcPolicy.SanitizeBytes(html))
}
