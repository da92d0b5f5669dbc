package api

import (
	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
	"github.com/streamerhq/streamer/app/subscription"
	"github.com/streamerhq/streamer/app/tasks"
)

type HandlerOptions struct {
	VerifyToken         string
	VerifyIncomingPosts bool
	MaxTaskRetries      int
	MaxFetch            int
}

type Handler struct {
	subRepo   database.SubscriptionRepository
	postRepo  database.PostRepository
	parser    *feed.Parser
	service   *subscription.Service
	scheduler tasks.TaskSchedulerInterface
	opts      HandlerOptions
}

type postResponse struct {
	ID          string `json:"id"`
	Url         string `json:"url"`
	FeedUrl     string `json:"feed_url"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
}

type subscriptionResponse struct {
	Url        string `json:"url"`
	Hub        string `json:"hub"`
	SourceUrl  string `json:"source_url"`
	Subscriber string `json:"subscriber"`
	Author     string `json:"author"`
	CreatedAt  string `json:"created_at"`
}
