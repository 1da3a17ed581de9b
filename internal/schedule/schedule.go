// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs the pipeline on a cron expression and makes sure
// at most one run is in progress per process, whether it was started by
// the scheduler or by an HTTP trigger.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/paperbot/internal/pipeline"
)

// ErrBusy is returned by Runner.Run while another run holds the lock.
var ErrBusy = errors.New("a run is already in progress")

// RunFunc performs one pipeline pass.
type RunFunc func(ctx context.Context) (pipeline.RunSummary, error)

// Runner serializes calls to a RunFunc.
type Runner struct {
	run    RunFunc
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRunner wraps run. A nil logger uses slog.Default.
func NewRunner(run RunFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{run: run, logger: logger}
}

// Run executes one pass unless another is in progress, in which case it
// returns ErrBusy immediately.
func (r *Runner) Run(ctx context.Context) (pipeline.RunSummary, error) {
	if !r.mu.TryLock() {
		return pipeline.RunSummary{}, ErrBusy
	}
	defer r.mu.Unlock()

	start := time.Now()
	sum, err := r.run(ctx)
	if err != nil {
		r.logger.Error("run failed", "err", err, "elapsed", time.Since(start))
		return sum, err
	}
	r.logger.Info("run finished",
		"posted", sum.Posted,
		"failed", sum.Failed,
		"deferred", sum.Deferred,
		"elapsed", time.Since(start))
	return sum, nil
}

// Scheduler fires a Runner on a cron expression.
type Scheduler struct {
	cron     *cron.Cron
	entryID  cron.EntryID
	location *time.Location
	runner   *Runner
	logger   *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// New parses spec (standard five-field cron) in timezone. An empty
// timezone uses the local zone.
func New(spec, timezone string, runner *Runner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		runner:   runner,
		logger:   logger,
		ctx:      context.Background(),
	}
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("adding cron entry %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins firing. Runs inherit ctx, so cancelling it aborts a run in
// progress; call Stop to prevent further runs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "next", s.Next(), "timezone", s.location.String())
}

// Stop prevents further runs and waits for a run in progress to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the next activation time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if _, err := s.runner.Run(ctx); errors.Is(err, ErrBusy) {
		s.logger.Warn("skipping scheduled run", "reason", err)
	}
	s.logger.Debug("next scheduled run", "at", s.Next())
}
