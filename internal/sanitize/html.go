package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	// Use for fields that must stay plain text (titles, locations, names).
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy allows safe user-generated content with basic formatting.
	// Use for event descriptions entered by admins.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and returns plain text.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// HTML sanitizes HTML content, allowing safe formatting tags.
// Removes script, iframe, event handlers and style attributes.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}
