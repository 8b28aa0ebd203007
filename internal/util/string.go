package util

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CleanText strips double quotes and surrounding whitespace (nicknames are rendered as "Bones").
func CleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// LastPathSegment returns the text after the final "/" of a link, without query or fragment.
func LastPathSegment(link string) string {
	if idx := strings.IndexAny(link, "?#"); idx != -1 {
		link = link[:idx]
	}
	parts := strings.Split(link, "/")
	return parts[len(parts)-1]
}

// SlugFromURL returns the last path segment of an absolute or relative URL.
func SlugFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return LastPathSegment(raw)
	}
	return LastPathSegment(parsed.Path)
}

// TitleFromSlug turns "ufc-fight-night-march-19-2022" into "Ufc Fight Night March 19 2022".
func TitleFromSlug(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
