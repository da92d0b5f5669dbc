// Package subscription orchestrates the lifecycle of a PSHB subscription:
// fetching the feed, persisting the subscription record, announcing the
// mode change to the hub, and keeping the stored posts in step.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
)

// FetchError reports a feed URL that answered with a not-found or
// bad-request class status. Adding such a feed is aborted with no side
// effects, and retrying is pointless.
type FetchError struct {
	Url        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of %s failed with status %d", e.Url, e.StatusCode)
}

// HubClient is the slice of the hub protocol the service needs.
type HubClient interface {
	Subscribe(ctx context.Context, topic, hubUrl string) error
	Unsubscribe(ctx context.Context, topic, hubUrl string) error
}

type Options struct {
	DefaultHub          string
	AlwaysUseDefaultHub bool
	MaxFetch            int
	UserAgent           string
}

type Service struct {
	subRepo    database.SubscriptionRepository
	postRepo   database.PostRepository
	hub        HubClient
	httpClient *http.Client
	parser     *feed.Parser
	opts       Options
}

func NewService(subRepo database.SubscriptionRepository, postRepo database.PostRepository,
	hub HubClient, httpClient *http.Client, parser *feed.Parser, opts Options) *Service {
	return &Service{
		subRepo:    subRepo,
		postRepo:   postRepo,
		hub:        hub,
		httpClient: httpClient,
		parser:     parser,
		opts:       opts,
	}
}

// Add subscribes to the feed at url. The whole operation is safe to re-run:
// a second call updates the existing subscription and upserts the same
// posts without creating duplicates.
func (s *Service) Add(ctx context.Context, url, subscriber string) error {
	data, err := s.fetch(ctx, url)
	if err != nil {
		return err
	}

	parsed := s.parser.Parse(data)

	hubUrl := feed.ExtractHub(parsed, s.opts.DefaultHub, s.opts.AlwaysUseDefaultHub)

	sub := database.Subscription{
		Url:        url,
		Hub:        hubUrl,
		SourceUrl:  feed.ExtractSourceUrl(parsed),
		Subscriber: subscriber,
		Author:     feed.ExtractFeedAuthor(parsed),
	}
	if err := s.subRepo.Upsert(sub); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}

	// Fire and forget: the hub confirms via a later challenge, and a hub
	// hiccup must not undo the subscription we just stored.
	if err := s.hub.Subscribe(ctx, url, hubUrl); err != nil {
		slog.Warn("Hub subscribe request failed", "url", url, "hub", hubUrl, "error", err)
	}

	posts := feed.ExtractPosts(parsed)
	if err := s.StorePosts(posts); err != nil {
		return err
	}

	slog.Info("Subscription added", "url", url, "subscriber", subscriber, "hub", hubUrl, "posts", len(posts))
	return nil
}

// Delete removes the subscription and every post belonging to its feed,
// then tells the hub we are gone. A missing subscription record is an
// inconsistency worth reporting, not a failure: the posts are still
// cleaned up, there is just no recorded hub to unsubscribe from.
func (s *Service) Delete(ctx context.Context, url string) error {
	sub, err := s.subRepo.Get(url)
	if err != nil {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	deleted, err := s.postRepo.DeleteByFeedUrl(url, s.opts.MaxFetch)
	if err != nil {
		return fmt.Errorf("failed to delete posts for feed: %w", err)
	}

	if err := s.subRepo.Delete(url); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	if sub == nil {
		slog.Warn("No subscription record found, cannot unsubscribe from hub", "url", url)
		return nil
	}

	if err := s.hub.Unsubscribe(ctx, url, sub.Hub); err != nil {
		slog.Warn("Hub unsubscribe request failed", "url", url, "hub", sub.Hub, "error", err)
	}

	slog.Info("Subscription deleted", "url", url, "posts_deleted", deleted)
	return nil
}

// StorePosts upserts extracted posts; identifiers already present are
// overwritten in place.
func (s *Service) StorePosts(posts []feed.Post) error {
	for _, post := range posts {
		rawEntry, err := json.Marshal(post.RawEntry)
		if err != nil {
			return fmt.Errorf("failed to marshal raw entry for %s: %w", post.ID, err)
		}

		record := database.Post{
			ID:          post.ID,
			Url:         post.Url,
			FeedUrl:     post.FeedUrl,
			Title:       post.Title,
			Content:     post.Content,
			Author:      post.Author,
			PublishedAt: post.PublishedAt,
			RawEntry:    string(rawEntry),
		}
		if err := s.postRepo.Upsert(record); err != nil {
			return fmt.Errorf("failed to store post %s: %w", post.ID, err)
		}
	}
	return nil
}

// fetch retrieves the feed body. A 400 or 404 answer means the resource is
// gone or was never a feed; that aborts the add with a FetchError. Other
// non-2xx statuses are not treated specially and whatever came back is
// handed to the parser.
func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, &FetchError{Url: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
