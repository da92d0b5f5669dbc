package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeSubscribeFeed   TaskType = "subscribe_feed"
	TaskTypeUnsubscribeFeed TaskType = "unsubscribe_feed"
	TaskTypeExtractContent  TaskType = "extract_content"
)

const (
	DefaultMaxRetries = 10
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetTopic() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	Topic      string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetTopic() string {
	return t.Topic
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, topic string, maxRetries int) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return Task{
		ID:         uniqueID,
		Type:       taskType,
		Topic:      topic,
		RetryCount: 0,
		MaxRetries: maxRetries,
	}
}
