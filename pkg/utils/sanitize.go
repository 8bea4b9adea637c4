package utils

import "strings"

// MaxPageNameLength is the maximum length, in characters, of a sanitized page name
const MaxPageNameLength = 100

// forbiddenNameChars replaces each character that is unsafe in file and zip entry names with "_"
var forbiddenNameChars = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	"*", "_",
	"?", "_",
	":", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizePageName makes a derived page name safe for use as a filename prefix.
// Every forbidden character becomes exactly one underscore (no collapsing), then the
// result is truncated to MaxPageNameLength characters without splitting a rune.
func SanitizePageName(name string) string {
	sanitized := forbiddenNameChars.Replace(name)
	if runes := []rune(sanitized); len(runes) > MaxPageNameLength {
		sanitized = string(runes[:MaxPageNameLength])
	}
	return sanitized
}
