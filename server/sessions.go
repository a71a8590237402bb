// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jcodagnone/rideloc/location"
)

// DefaultSessionIdle is how long a session may go without input before it is reaped.
const DefaultSessionIdle = 10 * time.Minute

// session is one typing client: a Sequencer plus the last result it applied.
type session struct {
	seq *location.Sequencer

	mu       sync.Mutex
	latest   *location.Result
	lastUsed time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = now
}

func (s *session) store(r location.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &r
}

// SessionSnapshot is what GET /api/sessions/:id/results returns.
type SessionSnapshot struct {
	Generation uint64                  `json:"generation"`
	State      string                  `json:"state"`
	Stats      location.SequencerStats `json:"stats"`
	Latest     *location.Result        `json:"latest"`
}

func (s *session) snapshot() SessionSnapshot {
	state, gen := s.seq.State()
	stats := s.seq.Stats()

	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionSnapshot{
		Generation: gen,
		State:      state.String(),
		Stats:      stats,
		Latest:     s.latest,
	}
}

// Sessions holds a Sequencer per client session.
type Sessions struct {
	resolve location.ResolveFunc
	opts    []location.SequencerOption
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessions creates an empty session table.
func NewSessions(resolve location.ResolveFunc, idle time.Duration, opts ...location.SequencerOption) *Sessions {
	if idle <= 0 {
		idle = DefaultSessionIdle
	}

	return &Sessions{
		resolve:  resolve,
		opts:     opts,
		idle:     idle,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// get returns the session for id, creating it when missing.
func (s *Sessions) get(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		sess.seq = location.NewSequencer(s.resolve, sess.store, s.opts...)
		s.sessions[id] = sess
	}

	sess.touch(s.now())

	return sess
}

// lookup returns an existing session.
func (s *Sessions) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]

	return sess, ok
}

// Reap closes the sessions idle for longer than the idle timeout and returns how many it closed.
func (s *Sessions) Reap() int {
	cutoff := s.now().Add(-s.idle)

	var stale []*session

	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastUsed.Before(cutoff)
		sess.mu.Unlock()

		if idle {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.seq.Close()
	}

	return len(stale)
}

// Run reaps idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Reap(); n > 0 {
				log.Printf("Reaped %d idle sessions", n)
			}
		}
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Close closes every session.
func (s *Sessions) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = map[string]*session{}
	s.mu.Unlock()

	for _, sess := range all {
		sess.seq.Close()
	}
}
