package tasks

// TaskSchedulerInterface is the surface handlers use to hand work to the
// background executor: enqueue a task, with at-least-once execution and a
// bounded retry count behind it.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
