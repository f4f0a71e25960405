package memtable

import "sync/atomic"

// Metrics counts table operations. Counters are updated atomically so
// readers holding only the shared lock can record too.
type Metrics struct {
	puts           atomic.Int64
	deletes        atomic.Int64
	gets           atomic.Int64
	hits           atomic.Int64
	rotations      atomic.Int64
	flushes        atomic.Int64
	flushedEntries atomic.Int64
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Puts           int64
	Deletes        int64
	Gets           int64
	Hits           int64
	Rotations      int64
	Flushes        int64
	FlushedEntries int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Puts:           m.puts.Load(),
		Deletes:        m.deletes.Load(),
		Gets:           m.gets.Load(),
		Hits:           m.hits.Load(),
		Rotations:      m.rotations.Load(),
		Flushes:        m.flushes.Load(),
		FlushedEntries: m.flushedEntries.Load(),
	}
}

// HitRatio is the share of Gets that found a live value.
func (s Snapshot) HitRatio() float64 {
	if s.Gets == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Gets)
}
