// Package format escapes user supplied text for Telegram legacy Markdown.
package format

import "strings"

var mdV1 = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// MD escapes text for legacy Markdown, the mode used for bot replies.
func MD(text string) string {
	return mdV1.Replace(text)
}
