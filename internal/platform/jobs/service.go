package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"feedbackportal/internal/platform/config"
)

const (
	JobAssessmentReminders = "assessment_reminders"
	JobSessionCleanup      = "session_cleanup"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	sessionCleanupSchedule = "@hourly"
)

var ErrUnknownJob = errors.New("unknown job type")

type RunFunc func(ctx context.Context) (any, error)

type Service struct {
	store    RunStore
	cfg      config.Config
	queue    chan job
	cron     *cron.Cron
	handlers map[string]RunFunc
}

type job struct {
	Type string
	Run  RunFunc
}

func New(store RunStore, cfg config.Config) *Service {
	return &Service{
		store:    store,
		cfg:      cfg,
		queue:    make(chan job, 128),
		cron:     cron.New(cron.WithLocation(cfg.Location())),
		handlers: map[string]RunFunc{},
	}
}

// Register binds a job type to its implementation. Call before Start.
func (s *Service) Register(jobType string, run RunFunc) {
	s.handlers[jobType] = run
}

func (s *Service) Types() []string {
	out := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Start runs the queue worker and, when jobs are enabled, the cron schedule.
// Both stop when ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	go s.worker(ctx)
	if !s.cfg.JobsEnabled {
		return nil
	}
	if _, ok := s.handlers[JobAssessmentReminders]; ok {
		if _, err := s.cron.AddFunc(s.cfg.ReminderSchedule, func() { s.Enqueue(JobAssessmentReminders) }); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
	}
	if _, ok := s.handlers[JobSessionCleanup]; ok {
		if _, err := s.cron.AddFunc(sessionCleanupSchedule, func() { s.Enqueue(JobSessionCleanup) }); err != nil {
			return fmt.Errorf("schedule session cleanup: %w", err)
		}
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

func (s *Service) Enqueue(jobType string) bool {
	run, ok := s.handlers[jobType]
	if !ok {
		slog.Warn("unknown job enqueued", "jobType", jobType)
		return false
	}
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string) (any, error) {
	run, ok := s.handlers[jobType]
	if !ok {
		return nil, ErrUnknownJob
	}
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	runID, err := s.store.StartRun(ctx, j.Type)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.store.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	slog.Info("job run finished", "jobType", j.Type, "status", status, "durationMs", time.Since(started).Milliseconds())
	return details, err
}
