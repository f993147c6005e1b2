package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the recurring scheduler.
type SchedulerConfig struct {
	// Interval between processing runs (default: 1h).
	Interval time.Duration

	// Clock supplies the processing date; nil uses time.Now.
	Clock Clock
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: time.Hour}
}

// Processor is the work a Scheduler runs on every tick.
type Processor interface {
	ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error)
}

// Scheduler runs a Processor immediately on start and then on a fixed
// interval until stopped.
type Scheduler struct {
	processor Processor
	config    SchedulerConfig

	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewScheduler(processor Processor, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{processor: processor, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("recurring scheduler is already running")
	}
	s.running = true
	s.stopping = false
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Recurring scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish. When ctx
// expires first the loop keeps winding down and Stop may be called again.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.stopping {
		s.stopping = true
		close(s.stopCh)
	}
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce processes due templates once, outside the loop.
func (s *Scheduler) RunOnce(ctx context.Context) (ProcessResult, error) {
	now := time.Now()
	if s.config.Clock != nil {
		now = s.config.Clock()
	}
	return s.processor.ProcessDue(ctx, now)
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Recurring processing run failed", "error", err)
	}
}
