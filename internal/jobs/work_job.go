package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// Task is the body of one job tick. session belongs to the tick's scope and
// is inside a transaction.
type Task[S ports.Session] func(ctx context.Context, session S) error

// Job is a schedulable unit managed by JobManager.
type Job interface {
	Name() string
	Start() error
	Stop()
}

// WorkJob runs a Task on a cron schedule, one unit of work per tick.
type WorkJob[S ports.Session] struct {
	name     string
	schedule string
	manager  *unitofwork.Manager[S]
	task     Task[S]
	ignored  []error
	cron     *cron.Cron
	logger   *slog.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

// WorkJobOption customizes a WorkJob.
type WorkJobOption func(*workJobOptions)

type workJobOptions struct {
	ignored []error
}

// WithIgnoredErrors marks expected task errors: the tick commits and nothing is logged.
func WithIgnoredErrors(targets ...error) WorkJobOption {
	return func(o *workJobOptions) {
		o.ignored = append(o.ignored, targets...)
	}
}

// NewWorkJob creates a job running task on schedule, a six-field cron
// expression with seconds.
func NewWorkJob[S ports.Session](
	name string,
	schedule string,
	manager *unitofwork.Manager[S],
	task Task[S],
	logger *slog.Logger,
	opts ...WorkJobOption,
) *WorkJob[S] {
	var o workJobOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &WorkJob[S]{
		name:     name,
		schedule: schedule,
		manager:  manager,
		task:     task,
		ignored:  o.ignored,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger:   logger.With("component", "work_job", "job", name),
	}
}

func (j *WorkJob[S]) Name() string {
	return j.name
}

// Start schedules the job. An invalid schedule is returned as an error.
func (j *WorkJob[S]) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Job started", "schedule", j.schedule)
	return nil
}

// Stop stops scheduling and waits for a running tick to finish.
func (j *WorkJob[S]) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Job stopped")
}

// Run executes a single tick synchronously in a new work scope.
func (j *WorkJob[S]) Run(ctx context.Context) error {
	ctx = unitofwork.NewScope(ctx)
	j.runs.Add(1)

	err := unitofwork.Transactional[S](ctx, j.manager, j.task, unitofwork.Ignore(j.ignored...))
	if err != nil && !j.isIgnored(err) {
		j.failures.Add(1)
		return err
	}
	return nil
}

// Runs returns how many ticks have executed.
func (j *WorkJob[S]) Runs() int64 {
	return j.runs.Load()
}

// Failures returns how many ticks have failed.
func (j *WorkJob[S]) Failures() int64 {
	return j.failures.Load()
}

func (j *WorkJob[S]) tick() {
	ctx := context.Background()
	if err := j.Run(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Job failed", "error", err)
	}
}

func (j *WorkJob[S]) isIgnored(err error) bool {
	for _, target := range j.ignored {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
