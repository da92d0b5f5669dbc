package feed

import (
	"log/slog"
	"time"
)

// Post is a normalized entry ready for storage, keyed by the entry's
// unique identifier.
type Post struct {
	ID          string
	Url         string
	FeedUrl     string
	Title       string
	Content     string
	Author      string
	PublishedAt time.Time
	RawEntry    map[string]any
}

// NewPost builds a Post from an extracted entry. Construction fails with
// ErrMissingIdentifier when the entry has neither id nor link; persistence
// is the caller's job.
func NewPost(url, feedUrl, title, content string, publishedAt time.Time, author string, entry *ParsedEntry) (Post, error) {
	id, err := ExtractUniqueID(entry)
	if err != nil {
		return Post{}, err
	}

	return Post{
		ID:          id,
		Url:         url,
		FeedUrl:     feedUrl,
		Title:       title,
		Content:     content,
		Author:      author,
		PublishedAt: publishedAt,
		RawEntry:    entry.Raw,
	}, nil
}

// ExtractPosts converts every entry of a parsed document into a Post.
// Entries without a unique identifier are skipped with a warning; they
// must not take their siblings down with them.
func ExtractPosts(parsed *ParsedFeed) []Post {
	feedUrl := ExtractFeedUrl(parsed)

	posts := make([]Post, 0, len(parsed.Entries))
	for i := range parsed.Entries {
		entry := &parsed.Entries[i]

		post, err := extractPost(entry, feedUrl)
		if err != nil {
			slog.Warn("Skipping entry without unique identifier", "feed_url", feedUrl, "title", entry.Title)
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

func extractPost(entry *ParsedEntry, feedUrl string) (Post, error) {
	if entry.HasContent() {
		return NewPost(
			ExtractPermaLink(entry),
			feedUrl,
			entry.Title,
			ExtractContent(entry),
			PublishedAt(entry),
			ExtractAuthor(entry),
			entry,
		)
	}

	// Legacy RSS item: raw link and description, no author.
	return NewPost(
		entry.Link,
		feedUrl,
		entry.Title,
		entry.Description,
		PublishedAt(entry),
		"",
		entry,
	)
}
