package tasks

import (
	"context"
	"log/slog"

	"github.com/streamerhq/streamer/app/subscription"
)

// UnsubscribeFeedTask deletes a subscription, its posts, and the hub lease.
type UnsubscribeFeedTask struct {
	Task
	service *subscription.Service
}

func NewUnsubscribeFeedTask(url string, service *subscription.Service, maxRetries int) *UnsubscribeFeedTask {
	return &UnsubscribeFeedTask{
		Task:    NewTask(TaskTypeUnsubscribeFeed, url, maxRetries),
		service: service,
	}
}

func (t *UnsubscribeFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.service.Delete(ctx, t.Topic); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"url", t.Topic,
		"duration", t.GetDuration())
	return nil
}
