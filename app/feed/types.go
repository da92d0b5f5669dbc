package feed

import (
	"time"
)

// Link is a rel-qualified link taken from the feed or channel element.
type Link struct {
	Rel  string
	Href string
}

// ParsedFeed is the normalized result of one parse call. It is always
// returned, even for malformed input: Valid is false and Diagnostic carries
// the parse failure, while the remaining fields hold whatever could still be
// salvaged from the document.
type ParsedFeed struct {
	Valid      bool
	Diagnostic string

	ID    string
	Title string
	Link  string // primary link, rel="alternate" where the format has one
	Links []Link

	AuthorName string // name from a structured author element
	Author     string // plain-text author field

	Entries []ParsedEntry
}

// ParsedEntry is a single entry or item with every field modeled as
// present-or-absent (empty means absent).
type ParsedEntry struct {
	ID string
	// MultiValuedID is set when the entry carries more than one id, or an id
	// with foreign-namespaced attributes. GReader feeds do this; such ids are
	// not usable as a unique identifier.
	MultiValuedID bool

	Link        string
	Title       string
	Summary     string
	Description string
	Content     []string // structured content values; nil for legacy RSS items

	Updated *time.Time

	AuthorName string // name from a structured author element
	Author     string // plain-text author field

	// Raw is a key-value snapshot of the entry, retained alongside the post
	// for inspection. It is serialized as JSON and never re-parsed into a
	// live entry in production code paths.
	Raw map[string]any
}

// HasContent reports whether the entry carries structured (atom-style)
// content, as opposed to a legacy RSS item that only has a description.
func (e *ParsedEntry) HasContent() bool {
	return e.Content != nil
}

func linkByRel(links []Link, rels ...string) string {
	for _, link := range links {
		for _, rel := range rels {
			if link.Rel == rel {
				return link.Href
			}
		}
	}
	return ""
}
