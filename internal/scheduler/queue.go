package scheduler

import (
	"time"

	"k8s.io/client-go/util/workqueue"
)

// Queue wraps a rate-limiting workqueue carrying pending job IDs (as
// strings) from trigger_sync to the worker pool.
type Queue struct {
	queue workqueue.RateLimitingInterface
}

// NewRateLimitingQueue creates a new workqueue with exponential backoff.
// Base delay 1 second, max delay 5 minutes, mirroring the reconciler's
// retry envelope.
func NewRateLimitingQueue() *Queue {
	rateLimiter := workqueue.NewItemExponentialFailureRateLimiter(
		1*time.Second,
		5*time.Minute,
	)

	return &Queue{
		queue: workqueue.NewRateLimitingQueue(rateLimiter),
	}
}

// Add adds an item to the queue.
func (q *Queue) Add(item interface{}) {
	q.queue.Add(item)
}

// Get retrieves an item from the queue, blocking if empty.
func (q *Queue) Get() (item interface{}, shutdown bool) {
	return q.queue.Get()
}

// Done marks an item as finished processing.
func (q *Queue) Done(item interface{}) {
	q.queue.Done(item)
}

// AddRateLimited adds an item with rate-limited backoff, for retries.
func (q *Queue) AddRateLimited(item interface{}) {
	q.queue.AddRateLimited(item)
}

// Forget resets the backoff for an item after a successful run.
func (q *Queue) Forget(item interface{}) {
	q.queue.Forget(item)
}

// ShutDown signals the queue to stop accepting new work.
func (q *Queue) ShutDown() {
	q.queue.ShutDown()
}

// ShuttingDown reports whether the queue is shutting down.
func (q *Queue) ShuttingDown() bool {
	return q.queue.ShuttingDown()
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	return q.queue.Len()
}
