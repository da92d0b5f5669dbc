package database

import (
	"time"
)

// Subscription is a record of a PSHB lease, keyed by the feed URL.
type Subscription struct {
	Url        string
	Hub        string // hub the subscribe request was sent to
	SourceUrl  string // the feed's self-declared human-readable URL
	Subscriber string // nickname of whoever added the feed
	Author     string // best-effort feed-level author
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Post is a stored atom:entry or RSS item, keyed by the entry's unique
// content identifier.
type Post struct {
	ID          string
	Url         string
	FeedUrl     string
	Title       string
	Content     string
	Author      string
	PublishedAt time.Time
	RawEntry    string // JSON key-value snapshot of the original entry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostForExtraction carries the fields the readable-content pipeline needs.
type PostForExtraction struct {
	ID  string
	Url string
}
