package scraper

import (
	"sync"
	"time"
)

// Queue is a bounded-concurrency work queue with a minimum interval
// between task dispatches. Every nutrition-page fetch goes through it
// so the scraper never hits the source site faster than it tolerates.
// Retries do not live here; they are composed around task bodies by
// the session's retry wrapper.
type Queue struct {
	tasks     chan func()
	wg        sync.WaitGroup
	ticker    *time.Ticker
	closeOnce sync.Once
}

func NewQueue(concurrency int, interval time.Duration) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}

	q := &Queue{
		tasks: make(chan func()),
	}
	if interval > 0 {
		q.ticker = time.NewTicker(interval)
	}

	for i := 0; i < concurrency; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	for task := range q.tasks {
		if q.ticker != nil {
			<-q.ticker.C
		}
		task()
		q.wg.Done()
	}
}

// Enqueue schedules a task; it blocks only while every worker is busy.
func (q *Queue) Enqueue(task func()) {
	q.wg.Add(1)
	q.tasks <- task
}

// Drain blocks until every task enqueued so far has completed. The
// queue remains usable afterwards.
func (q *Queue) Drain() {
	q.wg.Wait()
}

// Close stops the workers once drained. Enqueue must not be called
// after Close.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.tasks)
		if q.ticker != nil {
			q.ticker.Stop()
		}
	})
}
