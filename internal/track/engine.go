package track

import (
	"sync"
	"time"

	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// Engine is the correlation engine: it consumes raw feed payloads on tick
// boundaries, correlates live positions with the current schedule
// snapshot, maintains trails, and publishes an immutable view model.
//
// Shared state follows a replace-on-publish discipline: each tick builds
// the full next view and swaps it in atomically, so readers never observe
// a partially updated view.
type Engine struct {
	normalizer *Normalizer
	matcher    Matcher
	trails     *TrailStore
	logger     *logger.Logger

	mu             sync.RWMutex
	schedule       []ScheduledFlight
	view           []TrackedAircraft
	selected       string
	lastLiveAt     time.Time
	lastScheduleAt time.Time

	subMu sync.Mutex
	subs  map[chan []TrackedAircraft]struct{}
}

// NewEngine creates a correlation engine
func NewEngine(normalizer *Normalizer, matcher Matcher, trails *TrailStore, log *logger.Logger) *Engine {
	return &Engine{
		normalizer: normalizer,
		matcher:    matcher,
		trails:     trails,
		logger:     log.Named("engine"),
		schedule:   []ScheduledFlight{},
		view:       []TrackedAircraft{},
		subs:       make(map[chan []TrackedAircraft]struct{}),
	}
}

// OnScheduleTick replaces the schedule snapshot wholesale. A nil payload
// means the poll failed; the prior snapshot is retained until the next
// successful one. A successful poll with no flights does replace the
// snapshot with an empty one.
func (e *Engine) OnScheduleTick(raw *feed.RawSchedulePayload) {
	if raw == nil {
		e.logger.Warn("Schedule poll failed, retaining previous snapshot")
		return
	}

	snapshot := e.normalizer.NormalizeSchedule(raw)

	e.mu.Lock()
	e.schedule = snapshot
	e.lastScheduleAt = time.Now().UTC()
	e.mu.Unlock()

	e.logger.Info("Schedule snapshot replaced", logger.Int("flights", len(snapshot)))
}

// OnLiveTick processes one live-position poll: normalize, match each
// position against the schedule snapshot, record trails, then publish the
// assembled view atomically.
//
// A nil payload means the poll failed: the previous view and all trails
// are left untouched. A successful poll with zero airborne aircraft
// publishes an empty view but still leaves trails in place for the next
// sighting.
func (e *Engine) OnLiveTick(raw *feed.RawLivePayload) {
	if raw == nil {
		e.logger.Warn("Live poll failed, retaining previous view")
		return
	}

	positions := e.normalizer.NormalizeLivePositions(raw)
	if len(positions) == 0 {
		e.publish([]TrackedAircraft{})
		return
	}

	e.mu.RLock()
	schedule := e.schedule
	e.mu.RUnlock()

	e.trails.AdvanceTick()

	next := make([]TrackedAircraft, 0, len(positions))
	for _, pos := range positions {
		identity := pos.Identity()
		trail := e.trails.Record(identity, TrailPoint{Lat: pos.Lat, Lng: pos.Lng})

		next = append(next, TrackedAircraft{
			Identity: identity,
			Position: pos,
			Flight:   e.matcher.Match(pos, schedule),
			Trail:    trail,
		})
	}

	e.publish(next)
	e.logger.Debug("View published", logger.Int("aircraft", len(next)))
}

// publish swaps in the new view and fans it out to subscribers
func (e *Engine) publish(next []TrackedAircraft) {
	e.mu.Lock()
	e.view = next
	e.lastLiveAt = time.Now().UTC()
	e.mu.Unlock()

	e.subMu.Lock()
	for ch := range e.subs {
		// Non-blocking: a slow subscriber skips frames rather than
		// stalling the tick
		select {
		case ch <- next:
		default:
		}
	}
	e.subMu.Unlock()
}

// GetView returns the current published view. The returned slice is the
// live snapshot and must not be mutated by callers.
func (e *Engine) GetView() []TrackedAircraft {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// GetSchedule returns the current schedule snapshot as flight-board
// entries, with highlights computed against the selected identity.
// direction filters to arrivals or departures; empty means all.
func (e *Engine) GetSchedule(direction Direction) []BoardFlight {
	e.mu.RLock()
	schedule := e.schedule
	selected := e.selected
	e.mu.RUnlock()

	board := make([]BoardFlight, 0, len(schedule))
	for _, f := range schedule {
		if direction != "" && f.Direction != direction {
			continue
		}
		board = append(board, BoardFlight{
			ScheduledFlight: f,
			Highlighted:     e.matcher.Highlights(selected, f),
		})
	}
	return board
}

// Select records the renderer's hovered/selected identity; an empty string
// clears the selection. The identity is opaque to the engine and only used
// for highlight matching.
func (e *Engine) Select(identity string) {
	e.mu.Lock()
	e.selected = identity
	e.mu.Unlock()
}

// Selected returns the currently selected identity
func (e *Engine) Selected() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// Trail returns the stored trail for an identity
func (e *Engine) Trail(identity string) []TrailPoint {
	return e.trails.Get(identity)
}

// Status reports the engine's last successful tick times
func (e *Engine) Status() (lastLive, lastSchedule time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastLiveAt, e.lastScheduleAt
}

// Subscribe registers for view-model updates. Each published view is sent
// to the returned channel; frames are dropped for subscribers that fall
// behind. The cancel function must be called to release the subscription.
func (e *Engine) Subscribe() (<-chan []TrackedAircraft, func()) {
	ch := make(chan []TrackedAircraft, 1)

	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	cancel := func() {
		e.subMu.Lock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
		e.subMu.Unlock()
	}
	return ch, cancel
}
