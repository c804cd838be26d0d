package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GuestMarker starts the guest section that is cut from episode descriptions
const GuestMarker = "ゲスト："

// StripHTML removes tags and decodes entities from an HTML fragment
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// CleanDescription strips HTML and drops everything from the guest marker on
func CleanDescription(s string) string {
	text := StripHTML(s)
	if idx := strings.Index(text, GuestMarker); idx != -1 {
		text = strings.TrimSpace(text[:idx])
	}
	return text
}

// Truncate cuts s to at most max runes, appending suffix when cut
func Truncate(s string, max int, suffix string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]) + suffix, true
}
