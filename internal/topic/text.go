package topic

import "strings"

// PreviewChars is the number of content characters shown in list previews.
const PreviewChars = 100

// TagSeparator joins tags for display and for the editable tags field.
const TagSeparator = ", "

// SplitTags converts the free-text tags field into a tag list:
// split on ",", trim each piece, keep order, keep empty pieces.
//
//	" a, b ,c," -> ["a" "b" "c" ""]
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, len(parts))
	for i, p := range parts {
		tags[i] = strings.TrimSpace(p)
	}
	return tags
}

// JoinTags renders a tag list as editable text.
func JoinTags(tags []string) string {
	return strings.Join(tags, TagSeparator)
}

// Preview returns the first PreviewChars characters of content followed by "...".
// The marker is appended even when nothing was cut.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) > PreviewChars {
		runes = runes[:PreviewChars]
	}
	return string(runes) + "..."
}
