package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const pruneJobName = "ledger_prune"

// Pruner deletes ledger rows older than the retention window on a cron schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	scheduler gocron.Scheduler
	log       *slog.Logger
	now       func() time.Time
}

// NewPruner schedules the prune job. schedule is a six-field cron expression
// (seconds first), e.g. "0 0 3 * * *" for 03:00 UTC daily.
func NewPruner(st Store, retention time.Duration, schedule string, log *slog.Logger) (*Pruner, error) {
	if st == nil {
		return nil, errors.New("nil store")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "pruner")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	p := &Pruner{store: st, retention: retention, scheduler: s, log: log, now: time.Now}

	job, err := s.NewJob(
		gocron.CronJob(schedule, true),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := p.RunOnce(ctx); err != nil {
				p.log.Error("Scheduled prune failed", "error", err)
			}
		}),
		gocron.WithName(pruneJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule job %s: %w", pruneJobName, err)
	}

	logAttrs := []any{"job_name", pruneJobName, "cron", schedule, "retention", retention.String()}
	if next, err := job.NextRun(); err == nil && !next.IsZero() {
		logAttrs = append(logAttrs, "next_run", next.Format(time.RFC3339))
	}
	log.Info("Job scheduled", logAttrs...)

	return p, nil
}

// Start begins running scheduled jobs.
func (p *Pruner) Start() {
	p.scheduler.Start()
}

// RunOnce deletes everything older than now minus the retention window.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	p.log.InfoContext(ctx, "Ledger pruned", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

// Stop shuts the scheduler down and waits for a running job to finish.
func (p *Pruner) Stop() error {
	if err := p.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// gocronLogAdapter routes gocron's logger interface to slog.
type gocronLogAdapter struct {
	log *slog.Logger
}

func (l *gocronLogAdapter) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l *gocronLogAdapter) Info(msg string, args ...any)  { l.log.Info(msg, args...) }
func (l *gocronLogAdapter) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
func (l *gocronLogAdapter) Error(msg string, args ...any) { l.log.Error(msg, args...) }
