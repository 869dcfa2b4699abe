package server

import (
	"html"
	"regexp"
	"strings"
)

const (
	maxTextLength = 10000
	maxNameLength = 200
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// sanitizeText cleans user-supplied text before it reaches the store or
// the generation provider: trim, strip HTML tags, escape what remains,
// and cap the length. Even if frontend escaping is bypassed, raw markup
// never gets persisted.
func sanitizeText(text string, maxLength int) string {
	text = strings.TrimSpace(text)
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = html.EscapeString(text)
	if runes := []rune(text); len(runes) > maxLength {
		text = string(runes[:maxLength])
	}
	return text
}
