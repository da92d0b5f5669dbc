package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/streamerhq/streamer/app/subscription"
)

// SubscribeFeedTask runs the add-subscription path for one feed URL. It is
// idempotent, so redelivery by the executor is harmless.
type SubscribeFeedTask struct {
	Task
	Subscriber string
	service    *subscription.Service
}

func NewSubscribeFeedTask(url, subscriber string, service *subscription.Service, maxRetries int) *SubscribeFeedTask {
	return &SubscribeFeedTask{
		Task:       NewTask(TaskTypeSubscribeFeed, url, maxRetries),
		Subscriber: subscriber,
		service:    service,
	}
}

func (t *SubscribeFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.service.Add(ctx, t.Topic, t.Subscriber)

	// A 400/404 from the origin will not get better on retry; report it
	// and let the task end.
	var fetchErr *subscription.FetchError
	if errors.As(err, &fetchErr) {
		slog.Warn("Feed is not fetchable, abandoning subscription",
			"url", t.Topic,
			"subscriber", t.Subscriber,
			"status", fetchErr.StatusCode)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"url", t.Topic,
		"duration", t.GetDuration())
	return nil
}
