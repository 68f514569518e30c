package pipeline

import "sync"

// Ticket identifies one fetch issued by a loader.
type Ticket struct {
	Loader string
	Seq    uint64
	View   string
}

// Sequencer hands out monotonically increasing sequence numbers per loader
// and remembers the latest one issued.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next issues a new ticket for loader on behalf of view. Every ticket issued
// earlier for the same loader becomes stale.
func (s *Sequencer) Next(loader, view string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[loader]++
	return Ticket{Loader: loader, Seq: s.latest[loader], View: view}
}

// IsLatest reports whether t is the most recent ticket for its loader.
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.Seq != 0 && s.latest[t.Loader] == t.Seq
}
