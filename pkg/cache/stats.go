package cache

import "sync/atomic"

// Stats counts lookups for one cache tier. Counters only grow until Reset.
// The zero value is ready to use and safe for concurrent use.
type Stats struct {
	hits   atomic.Uint64
	misses atomic.Uint64
	errors atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of a tier's counters.
type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Errors  uint64  `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

func (s *Stats) hit()     { s.hits.Add(1) }
func (s *Stats) miss()    { s.misses.Add(1) }
func (s *Stats) failure() { s.errors.Add(1) }

// Hits returns the number of hits.
func (s *Stats) Hits() uint64 { return s.hits.Load() }

// Misses returns the number of misses.
func (s *Stats) Misses() uint64 { return s.misses.Load() }

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s *Stats) HitRate() float64 {
	return hitRate(s.hits.Load(), s.misses.Load())
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	h, m := s.hits.Load(), s.misses.Load()
	return StatsSnapshot{Hits: h, Misses: m, Errors: s.errors.Load(), HitRate: hitRate(h, m)}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.errors.Store(0)
}

func hitRate(h, m uint64) float64 {
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}
