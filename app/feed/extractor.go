package feed

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingIdentifier marks an entry that has neither a usable id nor a
// link. Such an entry cannot be stored; sibling entries in the same
// document are unaffected.
var ErrMissingIdentifier = errors.New("entry has no unique identifier")

// The rel values under which a feed publishes its own subscription URL.
// The google schemas rel predates widespread rel="self" support.
const (
	relSelf       = "self"
	relHub        = "hub"
	relAlternate  = "alternate"
	relGoogleFeed = "http://schemas.google.com/g/2005#feed"
)

// ExtractUniqueID returns the identifier a post is keyed by: the entry id
// when it is a single scalar value, otherwise the link. GReader-style
// multi-valued ids are rejected as non-unique and fall through to the link.
func ExtractUniqueID(entry *ParsedEntry) (string, error) {
	if entry.ID != "" && !entry.MultiValuedID {
		return entry.ID, nil
	}
	if entry.Link != "" {
		return entry.Link, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMissingIdentifier, entry.Title)
}

// ExtractPermaLink prefers the entry's alternate link and falls back to the
// raw id field.
func ExtractPermaLink(entry *ParsedEntry) string {
	if entry.Link != "" {
		return entry.Link
	}
	return entry.ID
}

// ExtractAuthor prefers the name from a structured author element over the
// plain-text author field.
func ExtractAuthor(entry *ParsedEntry) string {
	if entry.AuthorName != "" {
		return entry.AuthorName
	}
	return entry.Author
}

// ExtractFeedAuthor returns the feed-level author when declared. Otherwise
// the entry authors are consulted: if every entry agrees on one author,
// that author made the whole feed; more than one distinct value is
// ambiguous and yields the empty string.
func ExtractFeedAuthor(parsed *ParsedFeed) string {
	if parsed.AuthorName != "" {
		return parsed.AuthorName
	}
	if parsed.Author != "" {
		return parsed.Author
	}

	if len(parsed.Entries) == 0 {
		return ""
	}
	first := ExtractAuthor(&parsed.Entries[0])
	for i := range parsed.Entries[1:] {
		if ExtractAuthor(&parsed.Entries[i+1]) != first {
			return ""
		}
	}
	return first
}

// PublishedAt returns the entry's updated timestamp, or the current UTC
// time when the entry does not declare one.
func PublishedAt(entry *ParsedEntry) time.Time {
	if entry.Updated != nil && !entry.Updated.IsZero() {
		return *entry.Updated
	}
	return time.Now().UTC()
}

// ExtractContent returns the body of an entry. Structured content wins;
// when it is present but empty the summary is used instead (Flickr ships
// RSS 2.0 items with empty atom:content). Legacy RSS items without any
// structured content use the description field directly.
func ExtractContent(entry *ParsedEntry) string {
	if entry.HasContent() {
		content := entry.Content[0]
		if content == "" {
			content = entry.Summary
		}
		return content
	}
	return entry.Description
}

// ExtractHub returns the hub responsible for the feed: the feed-declared
// rel="hub" link, or defaultHub when the feed declares none or the
// deployment always overrides feed hubs.
func ExtractHub(parsed *ParsedFeed, defaultHub string, alwaysUseDefault bool) string {
	if alwaysUseDefault {
		return defaultHub
	}
	if hub := linkByRel(parsed.Links, relHub); hub != "" {
		return hub
	}
	return defaultHub
}

// ExtractFeedUrl returns the feed's own subscription URL as declared via
// rel="self" or the google schemas rel. Feeds that declare neither get the
// primary link with "rss" appended, a known-imprecise heuristic kept for
// feeds that predate rel="self".
func ExtractFeedUrl(parsed *ParsedFeed) string {
	if href := linkByRel(parsed.Links, relGoogleFeed, relSelf); href != "" {
		return href
	}
	return parsed.Link + "rss"
}

// ExtractSourceUrl returns the feed's human-readable URL: the alternate
// link, falling back to the feed id.
func ExtractSourceUrl(parsed *ParsedFeed) string {
	if href := linkByRel(parsed.Links, relAlternate); href != "" {
		return href
	}
	if parsed.Link != "" {
		return parsed.Link
	}
	return parsed.ID
}
