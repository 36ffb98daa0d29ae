package service

import (
	"regexp"
	"strings"
)

var (
	reFenceStart = regexp.MustCompile("(?is)^\\s*```[a-z]*\\s*")
	reFenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
	reEmphasis   = regexp.MustCompile(`\*\*|__`)
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	reBullet     = regexp.MustCompile(`(?m)^[ \t]*[-*•][ \t]+`)
)

// cleanPlainText quita BOM, fences y marcas de Markdown que el LLM agrega aunque
// se le pida texto plano.
func cleanPlainText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	s = reEmphasis.ReplaceAllString(s, "")
	s = reHeading.ReplaceAllString(s, "")
	s = reBullet.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
