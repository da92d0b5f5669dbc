package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
	"github.com/streamerhq/streamer/app/subscription"
)

type mockSubscriptionRepository struct {
	subs map[string]database.Subscription
}

func newMockSubscriptionRepository() *mockSubscriptionRepository {
	return &mockSubscriptionRepository{subs: make(map[string]database.Subscription)}
}

func (m *mockSubscriptionRepository) Upsert(sub database.Subscription) error {
	m.subs[sub.Url] = sub
	return nil
}

func (m *mockSubscriptionRepository) Get(url string) (*database.Subscription, error) {
	sub, ok := m.subs[url]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *mockSubscriptionRepository) Exists(url string) (bool, error) {
	_, ok := m.subs[url]
	return ok, nil
}

func (m *mockSubscriptionRepository) Delete(url string) error {
	delete(m.subs, url)
	return nil
}

func (m *mockSubscriptionRepository) List(limit int) ([]database.Subscription, error) {
	subs := make([]database.Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	return subs, nil
}

func (m *mockSubscriptionRepository) GetCount() (int, error) {
	return len(m.subs), nil
}

type mockPostRepository struct {
	posts map[string]database.Post
}

func newMockPostRepository() *mockPostRepository {
	return &mockPostRepository{posts: make(map[string]database.Post)}
}

func (m *mockPostRepository) Upsert(post database.Post) error {
	m.posts[post.ID] = post
	return nil
}

func (m *mockPostRepository) Get(id string) (*database.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	return &post, nil
}

func (m *mockPostRepository) GetRecent(limit int) ([]database.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) DeleteByFeedUrl(feedUrl string, limit int) (int, error) {
	deleted := 0
	for id, post := range m.posts {
		if post.FeedUrl == feedUrl {
			delete(m.posts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockPostRepository) GetCount() (int, error) {
	return len(m.posts), nil
}

func (m *mockPostRepository) GetCountByFeedUrl(feedUrl string) (int, error) {
	return 0, nil
}

func (m *mockPostRepository) GetPostsForExtraction(limit int) ([]database.PostForExtraction, error) {
	return nil, nil
}

func (m *mockPostRepository) UpdateExtractedContent(id string, content string, extractedAt time.Time) error {
	return nil
}

func (m *mockPostRepository) UpdateExtractionStatus(id string, status string, errorMsg string) error {
	return nil
}

type mockHubClient struct{}

func (m *mockHubClient) Subscribe(ctx context.Context, topic, hubUrl string) error   { return nil }
func (m *mockHubClient) Unsubscribe(ctx context.Context, topic, hubUrl string) error { return nil }

func newTestService(subRepo *mockSubscriptionRepository, postRepo *mockPostRepository) *subscription.Service {
	return subscription.NewService(subRepo, postRepo, &mockHubClient{}, http.DefaultClient, feed.NewParser(), subscription.Options{
		DefaultHub: "https://default.example.org/",
		MaxFetch:   500,
		UserAgent:  "Streamer/1.0",
	})
}

func TestSubscribeFeedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Feed</title>
  <id>tag:example.org,2009:feed</id>
  <link rel="self" href="https://example.org/atom"/>
  <entry>
    <id>tag:example.org,2009:1</id>
    <title>First post</title>
    <link rel="alternate" href="https://example.org/1"/>
    <content type="html">body</content>
  </entry>
</feed>`))
	}))
	defer server.Close()

	subRepo := newMockSubscriptionRepository()
	postRepo := newMockPostRepository()
	task := NewSubscribeFeedTask(server.URL, "admin", newTestService(subRepo, postRepo), 3)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if exists, _ := subRepo.Exists(server.URL); !exists {
		t.Error("Expected subscription to be stored")
	}
	if count, _ := postRepo.GetCount(); count != 1 {
		t.Errorf("Expected 1 stored post, got: %d", count)
	}
}

func TestSubscribeFeedTaskAbandonsUnfetchableFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	subRepo := newMockSubscriptionRepository()
	task := NewSubscribeFeedTask(server.URL, "admin", newTestService(subRepo, newMockPostRepository()), 3)

	// A 404 will not heal; the executor must not see an error to retry.
	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("Expected unfetchable feed to end the task without error, got: %v", err)
	}
	if count, _ := subRepo.GetCount(); count != 0 {
		t.Error("Expected no subscription for an unfetchable feed")
	}
}

func TestSubscribeFeedTaskPropagatesTransientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	task := NewSubscribeFeedTask(server.URL, "admin", newTestService(newMockSubscriptionRepository(), newMockPostRepository()), 3)

	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected a transport error to propagate for retry")
	}
}

func TestUnsubscribeFeedTask(t *testing.T) {
	subRepo := newMockSubscriptionRepository()
	postRepo := newMockPostRepository()

	url := "https://example.org/atom"
	subRepo.Upsert(database.Subscription{Url: url, Hub: "https://hub.example.org/"})
	postRepo.Upsert(database.Post{ID: "1", FeedUrl: url})

	task := NewUnsubscribeFeedTask(url, newTestService(subRepo, postRepo), 3)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if exists, _ := subRepo.Exists(url); exists {
		t.Error("Expected subscription record to be gone")
	}
	if count, _ := postRepo.GetCount(); count != 0 {
		t.Error("Expected feed posts to be gone")
	}
}
