package track

import (
	"sync"

	"github.com/asturlabs/ovdlive/pkg/logger"
)

// TrailStore keeps a bounded movement history per aircraft identity.
// Sequences are created lazily on first sighting, deduplicated on append,
// capped FIFO, and evicted once an identity has been absent from enough
// consecutive live ticks.
//
// Ticks are single-writer (the correlation engine), but the HTTP surface
// reads concurrently, so access is guarded and all returned slices are
// copies.
type TrailStore struct {
	mu         sync.RWMutex
	maxPoints  int
	evictAfter uint64
	tick       uint64
	trails     map[string][]TrailPoint
	lastSeen   map[string]uint64
	logger     *logger.Logger
}

// NewTrailStore creates a trail store. maxPoints caps each trail;
// evictAfterMissedTicks bounds how long a vanished aircraft's history is
// retained.
func NewTrailStore(maxPoints, evictAfterMissedTicks int, log *logger.Logger) *TrailStore {
	return &TrailStore{
		maxPoints:  maxPoints,
		evictAfter: uint64(evictAfterMissedTicks),
		trails:     make(map[string][]TrailPoint),
		lastSeen:   make(map[string]uint64),
		logger:     log.Named("trail-store"),
	}
}

// Record appends a point to the identity's trail and returns the updated
// sequence. The append is idempotent: a point equal to the last recorded
// one leaves the trail unchanged. After appending, only the most recent
// maxPoints entries are retained.
func (s *TrailStore) Record(identity string, point TrailPoint) []TrailPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.trails[identity]
	if n := len(trail); n == 0 || trail[n-1] != point {
		trail = append(trail, point)
		if len(trail) > s.maxPoints {
			trail = trail[len(trail)-s.maxPoints:]
		}
		s.trails[identity] = trail
	}
	s.lastSeen[identity] = s.tick

	return copyTrail(trail)
}

// Get returns the identity's current trail, or an empty sequence
func (s *TrailStore) Get(identity string) []TrailPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrail(s.trails[identity])
}

// All returns a copy of every stored trail keyed by identity
func (s *TrailStore) All() map[string][]TrailPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]TrailPoint, len(s.trails))
	for identity, trail := range s.trails {
		out[identity] = copyTrail(trail)
	}
	return out
}

// AdvanceTick moves the store to the next live tick and evicts identities
// that have been absent for more than the configured number of ticks. The
// engine calls this once per successfully processed live tick; failed
// polls therefore never age trails out.
func (s *TrailStore) AdvanceTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	for identity, seen := range s.lastSeen {
		if s.tick-seen > s.evictAfter {
			delete(s.trails, identity)
			delete(s.lastSeen, identity)
			s.logger.Debug("Evicted stale trail", logger.String("identity", identity))
		}
	}
}

// Len returns the number of tracked identities
func (s *TrailStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trails)
}

func copyTrail(trail []TrailPoint) []TrailPoint {
	out := make([]TrailPoint, len(trail))
	copy(out, trail)
	return out
}
