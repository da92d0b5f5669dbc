package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Parser converts raw feed bytes into a ParsedFeed. It wraps gofeed and
// never fails outright: malformed input yields a document with Valid unset
// and the failure captured in Diagnostic, so callers can still attempt
// best-effort extraction.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Parse(data []byte) *ParsedFeed {
	// The rel scan runs regardless of what gofeed thinks of the document:
	// some malformed feeds still carry usable link elements.
	scan := scanDocument(data)

	parsed := &ParsedFeed{
		ID:    scan.feedID,
		Links: scan.links,
	}

	source, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		parsed.Diagnostic = fmt.Sprintf("%T: %s", err, err)
		return parsed
	}
	parsed.Valid = true

	parsed.Title = source.Title
	parsed.Link = source.Link
	parsed.AuthorName, parsed.Author = personFields(source.Authors, source.Author)

	// gofeed resolves the rel="self" link for us; keep it when the scan
	// found no self link of its own.
	if source.FeedLink != "" && linkByRel(parsed.Links, "self") == "" {
		parsed.Links = append(parsed.Links, Link{Rel: "self", Href: source.FeedLink})
	}

	parsed.Entries = make([]ParsedEntry, 0, len(source.Items))
	for i, item := range source.Items {
		entry := p.normalizeEntry(item)
		if len(scan.entries) == len(source.Items) {
			entry.MultiValuedID = scan.entries[i].multiValuedID()
			if scan.entries[i].hasContent && entry.Content == nil {
				entry.Content = []string{item.Content}
			}
		}
		parsed.Entries = append(parsed.Entries, entry)
	}

	return parsed
}

func (p *Parser) normalizeEntry(item *gofeed.Item) ParsedEntry {
	entry := ParsedEntry{
		ID:          item.GUID,
		Link:        item.Link,
		Title:       item.Title,
		Summary:     item.Description,
		Description: item.Description,
	}

	if item.Content != "" {
		entry.Content = []string{item.Content}
	}

	if item.UpdatedParsed != nil {
		entry.Updated = item.UpdatedParsed
	} else if item.PublishedParsed != nil {
		entry.Updated = item.PublishedParsed
	}

	entry.AuthorName, entry.Author = personFields(item.Authors, item.Author)

	entry.Raw = rawEntry(item)

	return entry
}

// personFields maps gofeed's author representations onto the structured
// name and the plain-text fallback the extractor distinguishes between.
func personFields(authors []*gofeed.Person, author *gofeed.Person) (name, plain string) {
	person := author
	if len(authors) > 0 && authors[0] != nil {
		person = authors[0]
	}
	if person == nil {
		return "", ""
	}
	if person.Name != "" {
		return person.Name, person.Name
	}
	return "", person.Email
}

// rawEntry builds the key-value snapshot of an entry that is stored next to
// the post. Only plain data goes in here.
func rawEntry(item *gofeed.Item) map[string]any {
	raw := map[string]any{
		"guid":        item.GUID,
		"link":        item.Link,
		"title":       item.Title,
		"description": item.Description,
	}
	if item.Content != "" {
		raw["content"] = item.Content
	}
	if item.Updated != "" {
		raw["updated"] = item.Updated
	}
	if item.Published != "" {
		raw["published"] = item.Published
	}
	if len(item.Categories) > 0 {
		raw["categories"] = item.Categories
	}
	if name, plain := personFields(item.Authors, item.Author); name != "" {
		raw["author"] = name
	} else if plain != "" {
		raw["author"] = plain
	}
	return raw
}
