package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
	"github.com/streamerhq/streamer/app/subscription"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerOptions struct {
	WorkerCount     int
	RefreshInterval int // seconds; 0 disables periodic refreshes
	MaxTaskRetries  int
	MaxFetch        int
	ExtractContent  bool
	UserAgent       string
}

// Scheduler runs background tasks on a worker pool. Failed tasks are
// re-enqueued with backoff until their retry budget is exhausted, which
// gives every task at-least-once execution semantics.
type Scheduler struct {
	service          *subscription.Service
	subRepo          database.SubscriptionRepository
	postRepo         database.PostRepository
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	opts             SchedulerOptions
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(service *subscription.Service, subRepo database.SubscriptionRepository,
	postRepo database.PostRepository, httpClient *http.Client,
	contentExtractor *feed.ContentExtractor, opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		service:          service,
		subRepo:          subRepo,
		postRepo:         postRepo,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		opts:             opts,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.opts.RefreshInterval <= 0 {
		slog.Debug("Periodic refresh disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(time.Duration(s.opts.RefreshInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueRefreshTasks()
			}
		}
	}()
}

// Stop cancels the scheduler context and waits for workers to drain. The
// queue channel is left open so a late EnqueueTask fails cleanly instead
// of panicking on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueRefreshTasks re-runs the subscribe path for every known
// subscription, which re-fetches the feed and upserts its current posts.
func (s *Scheduler) enqueueRefreshTasks() {
	subs, err := s.subRepo.List(s.opts.MaxFetch)
	if err != nil {
		slog.Warn("Failed to list subscriptions for refresh", "error", err)
		return
	}

	slog.Debug("Refreshing subscriptions", "count", len(subs))

	for _, sub := range subs {
		task := NewSubscribeFeedTask(sub.Url, sub.Subscriber, s.service, s.opts.MaxTaskRetries)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue SubscribeFeedTask", "url", sub.Url, "error", err)
		}
	}

	if s.opts.ExtractContent {
		task := NewExtractContentTask(s.httpClient, s.contentExtractor, s.postRepo,
			s.opts.UserAgent, s.opts.MaxFetch, s.opts.MaxTaskRetries)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "topic", task.GetTopic(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task abandoned after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
