package database

import (
	"time"
)

type SubscriptionRepository interface {
	Upsert(sub Subscription) error
	Get(url string) (*Subscription, error)
	Exists(url string) (bool, error)
	Delete(url string) error
	List(limit int) ([]Subscription, error)
	GetCount() (int, error)
}

type PostRepository interface {
	Upsert(post Post) error
	Get(id string) (*Post, error)
	GetRecent(limit int) ([]Post, error)
	DeleteByFeedUrl(feedUrl string, limit int) (int, error)
	GetCount() (int, error)
	GetCountByFeedUrl(feedUrl string) (int, error)

	GetPostsForExtraction(limit int) ([]PostForExtraction, error)
	UpdateExtractedContent(id string, content string, extractedAt time.Time) error
	UpdateExtractionStatus(id string, status string, errorMsg string) error
}
