package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
)

const extractTimeout = 30 * time.Second

// ExtractContentTask fetches post pages and replaces truncated feed content
// with the readable article body. Entirely optional enrichment.
type ExtractContentTask struct {
	Task
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	postRepo         database.PostRepository
	userAgent        string
	limit            int
}

func NewExtractContentTask(httpClient *http.Client, contentExtractor *feed.ContentExtractor,
	postRepo database.PostRepository, userAgent string, limit int, maxRetries int) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, "", maxRetries),
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		postRepo:         postRepo,
		userAgent:        userAgent,
		limit:            limit,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	posts, err := t.postRepo.GetPostsForExtraction(t.limit)
	if err != nil {
		return fmt.Errorf("failed to get posts for content extraction: %w", err)
	}

	if len(posts) == 0 {
		slog.Debug("No posts need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, post := range posts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForPost(ctx, post); err != nil {
			slog.Error("Failed to extract content for post", "post_id", post.ID, "url", post.Url, "error", err)
			errorCount++

			if err := t.postRepo.UpdateExtractionStatus(post.ID, "failed", err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "post_id", post.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForPost(ctx context.Context, post database.PostForExtraction) error {
	data, err := t.fetchArticleContent(ctx, post.Url)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	extractedContent, err := t.contentExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := t.postRepo.UpdateExtractedContent(post.ID, extractedContent, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "post_id", post.ID, "url", post.Url, "content_length", len(extractedContent))
	return nil
}

func (t *ExtractContentTask) fetchArticleContent(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
