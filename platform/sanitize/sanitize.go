// Package sanitize cleans free text typed by users (addresses, client names,
// visit notes) before it is stored.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`[ \t]+`)
)

var entities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripHTML removes tags, decodes the common entities and strips again so
// an encoded tag cannot survive.
func StripHTML(s string) string {
	result := htmlTag.ReplaceAllString(s, "")
	result = entities.Replace(result)
	result = htmlTag.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips markup and collapses runs of spaces and tabs. Line breaks are
// kept because visit notes are often multi-line.
func Text(s string) string {
	return whitespace.ReplaceAllString(StripHTML(s), " ")
}

// OptionalText sanitizes an optional field and collapses blank results to nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
