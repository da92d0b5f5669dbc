package feed

import (
	"errors"
	"testing"
	"time"
)

func TestExtractUniqueIDPrefersScalarID(t *testing.T) {
	entry := &ParsedEntry{ID: "tag:example.org,2009:1", Link: "https://example.org/1"}

	id, err := ExtractUniqueID(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id != "tag:example.org,2009:1" {
		t.Errorf("Expected entry id, got: %s", id)
	}
}

func TestExtractUniqueIDFallsBackToLink(t *testing.T) {
	entry := &ParsedEntry{Link: "https://example.org/1"}

	id, err := ExtractUniqueID(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id != "https://example.org/1" {
		t.Errorf("Expected link, got: %s", id)
	}
}

func TestExtractUniqueIDRejectsMultiValuedID(t *testing.T) {
	// GReader feeds attach several ids to one entry; such an id is not
	// unique and the link must win.
	entry := &ParsedEntry{ID: "tag:google.com,2005:reader/1", MultiValuedID: true, Link: "https://example.org/1"}

	id, err := ExtractUniqueID(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id != "https://example.org/1" {
		t.Errorf("Expected link, got: %s", id)
	}
}

func TestExtractUniqueIDFailsWithoutIDAndLink(t *testing.T) {
	entry := &ParsedEntry{Title: "orphan"}

	_, err := ExtractUniqueID(entry)
	if !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("Expected ErrMissingIdentifier, got: %v", err)
	}
}

func TestExtractPermaLink(t *testing.T) {
	entry := &ParsedEntry{ID: "some-id", Link: "https://example.org/1"}
	if got := ExtractPermaLink(entry); got != "https://example.org/1" {
		t.Errorf("Expected link, got: %s", got)
	}

	entry = &ParsedEntry{ID: "some-id"}
	if got := ExtractPermaLink(entry); got != "some-id" {
		t.Errorf("Expected id fallback, got: %s", got)
	}

	entry = &ParsedEntry{}
	if got := ExtractPermaLink(entry); got != "" {
		t.Errorf("Expected empty string, got: %s", got)
	}
}

func TestExtractAuthorPrefersStructuredName(t *testing.T) {
	entry := &ParsedEntry{AuthorName: "Chris", Author: "chris@example.org"}
	if got := ExtractAuthor(entry); got != "Chris" {
		t.Errorf("Expected structured name, got: %s", got)
	}

	entry = &ParsedEntry{Author: "chris@example.org"}
	if got := ExtractAuthor(entry); got != "chris@example.org" {
		t.Errorf("Expected plain author, got: %s", got)
	}

	entry = &ParsedEntry{}
	if got := ExtractAuthor(entry); got != "" {
		t.Errorf("Expected empty string, got: %s", got)
	}
}

func TestExtractFeedAuthorUsesFeedLevelAuthor(t *testing.T) {
	parsed := &ParsedFeed{
		AuthorName: "Ade",
		Entries:    []ParsedEntry{{AuthorName: "Chris"}},
	}
	if got := ExtractFeedAuthor(parsed); got != "Ade" {
		t.Errorf("Expected feed-level author, got: %s", got)
	}
}

func TestExtractFeedAuthorAgreesWithAllEntries(t *testing.T) {
	parsed := &ParsedFeed{
		Entries: []ParsedEntry{
			{AuthorName: "Chris"},
			{AuthorName: "Chris"},
			{AuthorName: "Chris"},
		},
	}
	if got := ExtractFeedAuthor(parsed); got != "Chris" {
		t.Errorf("Expected 'Chris', got: %q", got)
	}
}

func TestExtractFeedAuthorAmbiguousIsEmpty(t *testing.T) {
	parsed := &ParsedFeed{
		Entries: []ParsedEntry{
			{AuthorName: "Chris"},
			{AuthorName: "Ade"},
		},
	}
	if got := ExtractFeedAuthor(parsed); got != "" {
		t.Errorf("Expected empty string for ambiguous authors, got: %q", got)
	}
}

func TestExtractFeedAuthorEmptyFeed(t *testing.T) {
	parsed := &ParsedFeed{}
	if got := ExtractFeedAuthor(parsed); got != "" {
		t.Errorf("Expected empty string, got: %q", got)
	}
}

func TestPublishedAtUsesUpdatedTimestamp(t *testing.T) {
	updated := time.Date(2009, 11, 23, 10, 30, 0, 0, time.UTC)
	entry := &ParsedEntry{Updated: &updated}

	if got := PublishedAt(entry); !got.Equal(updated) {
		t.Errorf("Expected %v, got: %v", updated, got)
	}
}

func TestPublishedAtFallsBackToNow(t *testing.T) {
	before := time.Now().UTC()
	got := PublishedAt(&ParsedEntry{})
	after := time.Now().UTC()

	if got.Before(before) || got.After(after) {
		t.Errorf("Expected a current timestamp, got: %v", got)
	}
}

func TestExtractContentStructured(t *testing.T) {
	entry := &ParsedEntry{
		Content:     []string{"<p>body</p>"},
		Summary:     "summary",
		Description: "description",
	}
	if got := ExtractContent(entry); got != "<p>body</p>" {
		t.Errorf("Expected structured content, got: %q", got)
	}
}

func TestExtractContentEmptyStructuredFallsBackToSummary(t *testing.T) {
	// Flickr ships RSS 2.0 with present-but-empty atom content.
	entry := &ParsedEntry{
		Content:     []string{""},
		Summary:     "summary",
		Description: "description",
	}
	if got := ExtractContent(entry); got != "summary" {
		t.Errorf("Expected summary fallback, got: %q", got)
	}
}

func TestExtractContentLegacyRSSUsesDescription(t *testing.T) {
	entry := &ParsedEntry{
		Summary:     "summary",
		Description: "description",
	}
	if got := ExtractContent(entry); got != "description" {
		t.Errorf("Expected description, got: %q", got)
	}
}

func TestExtractHub(t *testing.T) {
	parsed := &ParsedFeed{
		Links: []Link{
			{Rel: "alternate", Href: "https://example.org/"},
			{Rel: "hub", Href: "https://hub.example.org/"},
		},
	}

	if got := ExtractHub(parsed, "https://default.example.org/", false); got != "https://hub.example.org/" {
		t.Errorf("Expected feed-declared hub, got: %s", got)
	}

	if got := ExtractHub(parsed, "https://default.example.org/", true); got != "https://default.example.org/" {
		t.Errorf("Expected default hub override, got: %s", got)
	}

	noHub := &ParsedFeed{Links: []Link{{Rel: "alternate", Href: "https://example.org/"}}}
	if got := ExtractHub(noHub, "https://default.example.org/", false); got != "https://default.example.org/" {
		t.Errorf("Expected default hub fallback, got: %s", got)
	}
}

func TestExtractFeedUrl(t *testing.T) {
	parsed := &ParsedFeed{
		Links: []Link{
			{Rel: "alternate", Href: "https://example.org/"},
			{Rel: "self", Href: "https://example.org/atom"},
		},
	}
	if got := ExtractFeedUrl(parsed); got != "https://example.org/atom" {
		t.Errorf("Expected self link, got: %s", got)
	}

	googleRel := &ParsedFeed{
		Links: []Link{
			{Rel: "http://schemas.google.com/g/2005#feed", Href: "https://example.org/feed"},
		},
	}
	if got := ExtractFeedUrl(googleRel); got != "https://example.org/feed" {
		t.Errorf("Expected google schemas link, got: %s", got)
	}

	neither := &ParsedFeed{Link: "https://example.org/"}
	if got := ExtractFeedUrl(neither); got != "https://example.org/rss" {
		t.Errorf("Expected link with rss suffix, got: %s", got)
	}
}

func TestExtractSourceUrl(t *testing.T) {
	parsed := &ParsedFeed{
		Links: []Link{{Rel: "alternate", Href: "https://example.org/"}},
	}
	if got := ExtractSourceUrl(parsed); got != "https://example.org/" {
		t.Errorf("Expected alternate link, got: %s", got)
	}

	idOnly := &ParsedFeed{ID: "tag:example.org,2009:feed"}
	if got := ExtractSourceUrl(idOnly); got != "tag:example.org,2009:feed" {
		t.Errorf("Expected feed id fallback, got: %s", got)
	}
}
