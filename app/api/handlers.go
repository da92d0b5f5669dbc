package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
	"github.com/streamerhq/streamer/app/subscription"
	"github.com/streamerhq/streamer/app/tasks"
)

// How many posts the read endpoint serves.
const recentPostsLimit = 60

func NewHandler(subRepo database.SubscriptionRepository, postRepo database.PostRepository,
	parser *feed.Parser, service *subscription.Service,
	scheduler tasks.TaskSchedulerInterface, opts HandlerOptions) *Handler {
	return &Handler{
		subRepo:   subRepo,
		postRepo:  postRepo,
		parser:    parser,
		service:   service,
		scheduler: scheduler,
		opts:      opts,
	}
}

// GetPosts serves two callers on one path: the hub sending a verification
// challenge (recognized by the hub.challenge parameter), and readers
// asking for recent posts.
func (h *Handler) GetPosts(c *gin.Context) {
	if challenge := c.Query("hub.challenge"); challenge != "" {
		h.handleChallenge(c, challenge)
		return
	}

	posts, err := h.postRepo.GetRecent(recentPostsLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_posts", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		response = append(response, postResponse{
			ID:          post.ID,
			Url:         post.Url,
			FeedUrl:     post.FeedUrl,
			Title:       post.Title,
			Content:     post.Content,
			Author:      post.Author,
			PublishedAt: post.PublishedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"posts": response})
}

// handleChallenge decides whether a hub mode change matches our recorded
// intent. Subscribe challenges are echoed only for feeds we hold a
// subscription for; unsubscribe challenges only for feeds we do not. A hub
// asking to unsubscribe a feed we still hold is refused: our users think
// they are subscribed, so we honour their intent over the hub's.
func (h *Handler) handleChallenge(c *gin.Context, challenge string) {
	mode := c.Query("hub.mode")
	topic := c.Query("hub.topic")

	if h.opts.VerifyToken != "" && c.Query("hub.verify_token") != h.opts.VerifyToken {
		slog.Warn("Challenge with bad verify token", "topic", topic, "mode", mode)
		c.String(http.StatusNotFound, "Challenge failed for feed: %s with mode: %s", topic, mode)
		return
	}

	exists, err := h.subRepo.Exists(topic)
	if err != nil {
		slog.Error("Database error", "operation", "subscription_exists", "topic", topic, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	switch {
	case mode == hubModeSubscribe && exists:
		slog.Info("Accepted challenge for subscription", "topic", topic)
		c.String(http.StatusOK, "%s", challenge)
	case mode == hubModeUnsubscribe && !exists:
		slog.Info("Accepted challenge for unsubscription", "topic", topic)
		c.String(http.StatusOK, "%s", challenge)
	default:
		slog.Warn("Challenge failed", "topic", topic, "mode", mode, "subscription_exists", exists)
		c.String(http.StatusNotFound, "Challenge failed for feed: %s with mode: %s", topic, mode)
	}
}

const (
	hubModeSubscribe   = "subscribe"
	hubModeUnsubscribe = "unsubscribe"
)

// PushPosts ingests content the hub delivers for a subscribed feed.
func (h *Handler) PushPosts(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to read request body")
		return
	}

	parsed := h.parser.Parse(body)
	feedUrl := feed.ExtractFeedUrl(parsed)

	if h.opts.VerifyIncomingPosts {
		exists, err := h.subRepo.Exists(feedUrl)
		if err != nil {
			slog.Error("Database error", "operation", "subscription_exists", "feed_url", feedUrl, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		if !exists {
			slog.Warn("Pushed content for unknown feed", "feed_url", feedUrl)
			c.String(http.StatusNotFound, "We don't have a subscription for that feed: %s", feedUrl)
			return
		}
	}

	if !parsed.Valid {
		slog.Error("Bad feed data in content push", "feed_url", feedUrl, "diagnostic", parsed.Diagnostic)
		c.String(http.StatusBadRequest, "Bad entries: %s", parsed.Diagnostic)
		return
	}

	posts := feed.ExtractPosts(parsed)
	if err := h.service.StorePosts(posts); err != nil {
		slog.Error("Failed to store pushed posts", "feed_url", feedUrl, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	slog.Info("Stored pushed posts", "feed_url", feedUrl, "count", len(posts))
	c.String(http.StatusOK, "Good entries")
}

// AddSubscription enqueues the add-subscription path for a feed URL.
func (h *Handler) AddSubscription(c *gin.Context) {
	url := c.PostForm("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	subscriber := c.PostForm("subscriber")
	if subscriber == "" {
		subscriber = "admin"
	}

	task := tasks.NewSubscribeFeedTask(url, subscriber, h.service, h.opts.MaxTaskRetries)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue SubscribeFeedTask", "url", url, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued", "url": url})
}

// DeleteSubscription enqueues removal of a subscription and its posts.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		url = c.PostForm("url")
	}
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	task := tasks.NewUnsubscribeFeedTask(url, h.service, h.opts.MaxTaskRetries)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue UnsubscribeFeedTask", "url", url, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued", "url": url})
}

// RefreshSubscriptions enqueues a re-sync of every known subscription.
// Each feed is refreshed by its own task, so one broken feed cannot stall
// the rest.
func (h *Handler) RefreshSubscriptions(c *gin.Context) {
	subs, err := h.subRepo.List(h.opts.MaxFetch)
	if err != nil {
		slog.Error("Database error", "operation", "list_subscriptions", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	enqueued := 0
	for _, sub := range subs {
		task := tasks.NewSubscribeFeedTask(sub.Url, sub.Subscriber, h.service, h.opts.MaxTaskRetries)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue SubscribeFeedTask", "url", sub.Url, "error", err)
			continue
		}
		enqueued++
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued", "subscriptions": enqueued})
}

// ListSubscriptions returns all subscriptions ordered by URL.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subRepo.List(h.opts.MaxFetch)
	if err != nil {
		slog.Error("Database error", "operation", "list_subscriptions", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		response = append(response, subscriptionResponse{
			Url:        sub.Url,
			Hub:        sub.Hub,
			SourceUrl:  sub.SourceUrl,
			Subscriber: sub.Subscriber,
			Author:     sub.Author,
			CreatedAt:  sub.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": response})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.subRepo.GetCount(); err == nil {
		health["subscriptions"] = count
	}
	if count, err := h.postRepo.GetCount(); err == nil {
		health["posts"] = count
	}

	c.JSON(http.StatusOK, health)
}
