package viewmodel

import (
	"sync"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

// Request captures the query a fetch was built from. Seq orders requests
// issued for the same query.
type Request struct {
	Query accesslog.Query
	Seq   uint64
}

// Store owns the view state: the active query and the last applied entries.
type Store struct {
	mu         sync.RWMutex
	query      accesslog.Query
	entries    []accesslog.Entry
	aggregates Aggregates
	nextSeq    uint64
	appliedSeq uint64
	onChange   func()
}

func NewStore() *Store {
	return &Store{
		query:   accesslog.Query{Filter: accesslog.FilterAll},
		entries: []accesslog.Entry{},
	}
}

// OnQueryChange registers fn to run after every SetFilter/SetSearch.
func (s *Store) OnQueryChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) SetFilter(f accesslog.Filter) {
	s.mu.Lock()
	s.query.Filter = f.Normalize()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// SetSearch expects text already lower-cased by the caller.
func (s *Store) SetSearch(text string) {
	s.mu.Lock()
	s.query.Search = text
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *Store) Query() accesslog.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

func (s *Store) NewRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return Request{Query: s.query, Seq: s.nextSeq}
}

// ApplyFetchResult replaces the entries when req still matches the current
// query and is newer than the last applied request. Anything else is a stale
// response and is dropped.
//
// req must come from NewRequest. A hand-built Request has Seq 0, which is
// never newer than anything, so it is always dropped even if its Query
// matches.
func (s *Store) ApplyFetchResult(req Request, entries []accesslog.Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Query != s.query || req.Seq <= s.appliedSeq {
		return false
	}

	next := make([]accesslog.Entry, len(entries))
	copy(next, entries)

	s.entries = next
	s.aggregates = Summarize(next)
	s.appliedSeq = req.Seq
	return true
}

func (s *Store) VisibleEntries() []accesslog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]accesslog.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Aggregates() Aggregates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregates
}

func (s *Store) EmptyState() EmptyState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return EmptyStateFor(s.entries, s.query)
}

// Snapshot returns the query and entries under a single lock.
func (s *Store) Snapshot() (accesslog.Query, []accesslog.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]accesslog.Entry, len(s.entries))
	copy(out, s.entries)
	return s.query, out
}
