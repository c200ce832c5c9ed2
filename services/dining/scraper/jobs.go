package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the observable state of one asynchronous scrape run. Records
// are retained for an hour after creation, long enough to poll a
// result without the tracker growing forever.
type Job struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	Config      Config    `json:"config"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	Result      *Result   `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
}

const (
	jobRetention   = time.Hour
	jobTrackerSize = 256
)

type JobTracker struct {
	mu   sync.Mutex
	jobs *expirable.LRU[string, *Job]
}

func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: expirable.NewLRU[string, *Job](jobTrackerSize, nil, jobRetention),
	}
}

// Run starts a scrape in the background and returns its job record
// immediately. A run never errors at the top level; a failed run is a
// completed job whose result carries unit errors, so Status only
// reaches JobFailed on a panic-free run with Success=false.
func (t *JobTracker) Run(svc *Service, cfg Config) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobRunning,
		Config:    cfg,
		StartedAt: time.Now(),
	}

	t.mu.Lock()
	t.jobs.Add(job.ID, job)
	t.mu.Unlock()

	go func() {
		result := svc.ScrapeMenus(context.Background(), cfg)

		t.mu.Lock()
		defer t.mu.Unlock()
		job.Result = &result
		job.CompletedAt = time.Now()
		if result.Success {
			job.Status = JobCompleted
		} else {
			job.Status = JobFailed
		}
		slog.Info("scrape job finished", "job_id", job.ID, "status", job.Status)
	}()

	return job
}

// Get returns nil for unknown or expired job identifiers.
func (t *JobTracker) Get(jobID string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs.Get(jobID)
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (t *JobTracker) List() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	values := t.jobs.Values()
	jobs := make([]*Job, 0, len(values))
	for _, job := range values {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs
}
