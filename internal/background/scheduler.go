package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sitebuilder-backend/pkg/logger"
)

// SchedulerConfig bounds how many maintenance jobs may run at once.
type SchedulerConfig struct {
	WorkerCount int
}

// Job is a named maintenance task such as the preview session sweep.
type Job struct {
	Name     string
	Run      func(ctx context.Context) error
	Timeout  time.Duration
	Attempts uint
	Backoff  time.Duration
}

// JobStats summarizes a recurring job for health reporting.
type JobStats struct {
	Name        string    `json:"name"`
	Runs        int       `json:"runs"`
	Failures    int       `json:"failures"`
	Running     bool      `json:"running"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

var (
	ErrSchedulerNotStarted = errors.New("scheduler not started")
	ErrJobAlreadyScheduled = errors.New("job already scheduled")
)

type Scheduler struct {
	slots chan struct{}

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	jobs    map[string]*JobStats

	wg sync.WaitGroup
}

var (
	metricsOnce        sync.Once
	jobRunsTotal       *prometheus.CounterVec
	jobDurationSeconds *prometheus.HistogramVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebuilder",
			Subsystem: "background",
			Name:      "job_runs_total",
			Help:      "Maintenance job executions by outcome",
		}, []string{"job", "status"})

		jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitebuilder",
			Subsystem: "background",
			Name:      "job_duration_seconds",
			Help:      "Duration of maintenance job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"})
	})
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	initMetrics()

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}

	return &Scheduler{
		slots: make(chan struct{}, cfg.WorkerCount),
		jobs:  make(map[string]*JobStats),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
}

// ScheduleEvery runs job every interval until the scheduler shuts down. A
// tick is skipped while the previous run is still going.
func (s *Scheduler) ScheduleEvery(interval time.Duration, job Job) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return errors.New("job runner is required")
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	if _, exists := s.jobs[job.Name]; exists {
		s.mu.Unlock()
		return ErrJobAlreadyScheduled
	}
	s.jobs[job.Name] = &JobStats{Name: job.Name}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.claim(job.Name) {
					s.wg.Add(1)
					go s.execute(ctx, job)
				}
			}
		}
	}()

	return nil
}

func (s *Scheduler) claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.jobs[name]
	if stats == nil || stats.Running {
		return false
	}
	stats.Running = true
	return true
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	defer s.wg.Done()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.record(job.Name, context.Canceled)
		return
	}

	start := time.Now()
	err := s.runWithRetry(ctx, job)
	jobDurationSeconds.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
	s.record(job.Name, err)
}

func (s *Scheduler) runWithRetry(ctx context.Context, job Job) error {
	attempts := job.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			return runOnce(ctx, job)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(job.Backoff),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Retrying maintenance job", map[string]interface{}{
				"job":     job.Name,
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
}

func runOnce(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return job.Run(ctx)
}

func (s *Scheduler) record(name string, err error) {
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = "canceled"
	default:
		status = "failure"
	}
	jobRunsTotal.WithLabelValues(name, status).Inc()

	s.mu.Lock()
	stats := s.jobs[name]
	stats.Running = false
	if status != "canceled" {
		stats.Runs++
	}
	if err == nil {
		stats.LastSuccess = time.Now()
		stats.LastError = ""
	} else if status == "failure" {
		stats.Failures++
		stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if status == "failure" {
		logger.Error(err, "Maintenance job failed", map[string]interface{}{"job": name})
	}
}

// Stats returns a snapshot of every recurring job ordered by name.
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStats, 0, len(s.jobs))
	for _, stats := range s.jobs {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
