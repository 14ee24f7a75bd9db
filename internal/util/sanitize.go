package util

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go-wanandroid/pkg/apierror"
)

var (
	markupTags = regexp.MustCompile(`<[^>]*>`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

// CleanText turns an upstream title or description into plain text. Search
// results wrap matches in <em class='highlight'> and descriptions carry
// entities and line breaks.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	stripped := markupTags.ReplaceAllString(raw, "")
	unescaped := html.UnescapeString(stripped)

	builder := strings.Builder{}
	builder.Grow(len(unescaped))

	for _, char := range unescaped {
		if isInvisibleUnicode(char) {
			continue
		}
		if unicode.IsControl(char) {
			builder.WriteRune(' ')
			continue
		}

		builder.WriteRune(char)
	}

	return strings.TrimSpace(spaceRuns.ReplaceAllString(builder.String(), " "))
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	// Count runes, not bytes; titles are mostly CJK.
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// ParseID reads a positive integer identifier such as an article or
// category id.
func ParseID(raw string, name string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.Atoi(trimmed)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid "+name, raw)
	}
	return id, nil
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF': // Zero-Width No-Break Space / BOM
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
