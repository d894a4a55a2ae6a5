package pipeline

import "sync/atomic"

// Stats tracks pipeline counters for this process.
type Stats struct {
	published       atomic.Int64
	publishFailures atomic.Int64
	processed       atomic.Int64
	duplicates      atomic.Int64
	retried         atomic.Int64
	deadLettered    atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Published       int64 `json:"published"`
	PublishFailures int64 `json:"publish_failures"`
	Processed       int64 `json:"processed"`
	Duplicates      int64 `json:"duplicates"`
	Retried         int64 `json:"retried"`
	DeadLettered    int64 `json:"dead_lettered"`
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Published:       s.published.Load(),
		PublishFailures: s.publishFailures.Load(),
		Processed:       s.processed.Load(),
		Duplicates:      s.duplicates.Load(),
		Retried:         s.retried.Load(),
		DeadLettered:    s.deadLettered.Load(),
	}
}

// Reset zeroes every counter (useful for testing)
func (s *Stats) Reset() {
	s.published.Store(0)
	s.publishFailures.Store(0)
	s.processed.Store(0)
	s.duplicates.Store(0)
	s.retried.Store(0)
	s.deadLettered.Store(0)
}

func (s *Stats) RecordPublish(err error) {
	if err != nil {
		s.publishFailures.Add(1)
		return
	}
	s.published.Add(1)
}

func (s *Stats) RecordProcessed()  { s.processed.Add(1) }
func (s *Stats) RecordDuplicate()  { s.duplicates.Add(1) }
func (s *Stats) RecordRetry()      { s.retried.Add(1) }
func (s *Stats) RecordDeadLetter() { s.deadLettered.Add(1) }

// FailureRate returns publish failures as a percentage of publish attempts.
func (s Snapshot) FailureRate() float64 {
	total := s.Published + s.PublishFailures
	if total == 0 {
		return 0
	}
	return float64(s.PublishFailures) / float64(total) * 100
}
