package track

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// LiveFetcher is the live-position feed collaborator. Implementations
// return nil on any failure.
type LiveFetcher interface {
	FetchLivePositions(ctx context.Context) *feed.RawLivePayload
}

// ScheduleFetcher is the schedule feed collaborator. Implementations
// return nil on any failure.
type ScheduleFetcher interface {
	FetchSchedule(ctx context.Context) *feed.RawSchedulePayload
}

// Scheduler drives the two polling loops: the schedule feed at a coarse
// interval and the live-position feed at a fine one. The loops are
// independent; a failing feed never stalls the other. Both fire once
// immediately on Start.
type Scheduler struct {
	live             LiveFetcher
	schedule         ScheduleFetcher
	engine           *Engine
	liveInterval     time.Duration
	scheduleInterval time.Duration
	logger           *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a polling scheduler for the given feeds and engine
func NewScheduler(live LiveFetcher, schedule ScheduleFetcher, engine *Engine,
	liveInterval, scheduleInterval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		live:             live,
		schedule:         schedule,
		engine:           engine,
		liveInterval:     liveInterval,
		scheduleInterval: scheduleInterval,
		logger:           log.Named("scheduler"),
	}
}

// Start launches both polling loops. Non-blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, "live", s.liveInterval, s.liveTick)
	go s.loop(ctx, "schedule", s.scheduleInterval, s.scheduleTick)

	s.logger.Info("Polling started",
		logger.Duration("live_interval", s.liveInterval),
		logger.Duration("schedule_interval", s.scheduleInterval))
	return nil
}

// Stop cancels both loops and waits for them to finish. Safe to call
// multiple times and safe to call while a tick's network call is still
// outstanding; such in-flight results are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Polling stopped")
}

// IsRunning reports whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop runs one polling loop: an immediate first tick, then the interval
// cadence. Cancellation is re-checked after each timer fire so a Stop
// issued before the goroutine is scheduled results in zero feed calls.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if ctx.Err() == nil {
		tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Polling loop exited", logger.String("loop", name))
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			tick(ctx)
		}
	}
}

func (s *Scheduler) liveTick(ctx context.Context) {
	payload := s.live.FetchLivePositions(ctx)
	if ctx.Err() != nil {
		// Stopped while the call was in flight; do not apply the result
		return
	}
	s.engine.OnLiveTick(payload)
}

func (s *Scheduler) scheduleTick(ctx context.Context) {
	payload := s.schedule.FetchSchedule(ctx)
	if ctx.Err() != nil {
		return
	}
	s.engine.OnScheduleTick(payload)
}
