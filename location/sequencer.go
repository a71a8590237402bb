// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"sync"
	"time"

	"github.com/jcodagnone/rideloc/spatial"
)

// DefaultQuietInterval is how long input must stay unchanged before a search starts.
const DefaultQuietInterval = 300 * time.Millisecond

// ResolveFunc runs one search round. Resolver.Resolve adapted with ResolverFunc
// is the usual implementation.
type ResolveFunc func(ctx context.Context, q SearchQuery) []Candidate

// ResolverFunc adapts a Resolver to a ResolveFunc.
func ResolverFunc(r *Resolver) ResolveFunc {
	return func(ctx context.Context, q SearchQuery) []Candidate {
		return r.Resolve(ctx, q.Text, q.OriginHint)
	}
}

// Result is what the Sequencer hands to its consumer.
type Result struct {
	Query      SearchQuery `json:"query"`
	Candidates []Candidate `json:"results"`
}

// ApplyFunc publishes a result. It is only called for the current generation
// and never concurrently with itself.
type ApplyFunc func(Result)

// SequencerState is the lifecycle of the latest generation.
type SequencerState int

const (
	StateIdle SequencerState = iota
	StatePending
	StateApplied
	StateSuperseded
)

func (s SequencerState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	case StateSuperseded:
		return "superseded"
	default:
		return "idle"
	}
}

// Timer is the part of *time.Timer the Sequencer uses.
type Timer interface {
	Stop() bool
}

// Clock schedules the debounce timers.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SequencerStats counts what happened to every generation so far.
type SequencerStats struct {
	Generation uint64 `json:"generation"`
	Applied    uint64 `json:"applied"`
	// Superseded counts generations replaced before their result was applied.
	Superseded uint64 `json:"superseded"`
	// Discarded counts results that completed after being superseded.
	Discarded uint64 `json:"discarded"`
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithQuietInterval overrides DefaultQuietInterval.
func WithQuietInterval(d time.Duration) SequencerOption {
	return func(s *Sequencer) {
		if d >= 0 {
			s.quiet = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) SequencerOption {
	return func(s *Sequencer) { s.clock = c }
}

// Sequencer debounces free-text input and guarantees that only the result of
// the latest query reaches the consumer.
type Sequencer struct {
	resolve ResolveFunc
	apply   ApplyFunc
	quiet   time.Duration
	clock   Clock

	base context.Context
	stop context.CancelFunc

	// applyMu keeps the generation check and apply atomic with respect to other rounds.
	applyMu sync.Mutex
	wg      sync.WaitGroup

	mu         sync.Mutex
	generation uint64
	timer      Timer
	cancel     context.CancelFunc
	state      SequencerState
	stats      SequencerStats
	closed     bool
}

// NewSequencer builds a Sequencer that resolves with resolve and publishes with apply.
func NewSequencer(resolve ResolveFunc, apply ApplyFunc, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		resolve: resolve,
		apply:   apply,
		quiet:   DefaultQuietInterval,
		clock:   realClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.base, s.stop = context.WithCancel(context.Background())

	return s
}

// OnQueryChanged records new input and schedules a search once the input has
// been quiet for the configured interval. It returns the generation assigned
// to the query, or 0 after Close.
func (s *Sequencer) OnQueryChanged(text string, origin *spatial.Coordinate) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	q := s.nextLocked(text, origin)
	s.timer = s.clock.AfterFunc(s.quiet, func() { s.start(q) })

	return q.Generation
}

// Submit searches immediately, bypassing the debounce.
func (s *Sequencer) Submit(text string, origin *spatial.Coordinate) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return 0
	}

	q := s.nextLocked(text, origin)
	s.mu.Unlock()

	s.start(q)

	return q.Generation
}

// nextLocked supersedes the current generation and returns a query stamped
// with the next one.
func (s *Sequencer) nextLocked(text string, origin *spatial.Coordinate) SearchQuery {
	s.supersedeLocked()

	s.generation++
	s.stats.Generation = s.generation
	s.state = StatePending

	return SearchQuery{Text: text, OriginHint: origin, Generation: s.generation}
}

func (s *Sequencer) supersedeLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if s.state == StatePending {
		s.state = StateSuperseded
		s.stats.Superseded++
	}
}

func (s *Sequencer) start(q SearchQuery) {
	s.mu.Lock()
	if s.closed || q.Generation != s.generation {
		s.mu.Unlock()

		return
	}

	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, cancel, q)
}

func (s *Sequencer) run(ctx context.Context, cancel context.CancelFunc, q SearchQuery) {
	defer s.wg.Done()
	defer cancel()

	res := s.resolve(ctx, q)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	current := !s.closed && q.Generation == s.generation
	if current {
		s.state = StateApplied
		s.stats.Applied++
		s.cancel = nil
	} else {
		s.stats.Discarded++
	}
	s.mu.Unlock()

	if current && s.apply != nil {
		s.apply(Result{Query: q, Candidates: res})
	}
}

// State returns the lifecycle state of the latest generation and its number.
func (s *Sequencer) State() (SequencerState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, s.generation
}

// Stats returns the counters.
func (s *Sequencer) Stats() SequencerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Close stops pending timers, cancels in-flight searches and waits for them
// to return. Later input is ignored.
func (s *Sequencer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if s.state == StatePending {
		s.state = StateSuperseded
		s.stats.Superseded++
	}
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}
