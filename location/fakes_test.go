// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcodagnone/rideloc/spatial"
)

type mapStore struct {
	mu   sync.Mutex
	keys map[CredentialKey]string
}

func newMapStore(kv map[CredentialKey]string) *mapStore {
	s := &mapStore{keys: map[CredentialKey]string{}}
	for k, v := range kv {
		s.keys[k] = v
	}

	return s
}

func (s *mapStore) Get(_ context.Context, key CredentialKey) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.keys[key]

	return v, v != "", nil
}

func (s *mapStore) set(key CredentialKey, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key] = v
}

type fakeSearcher struct {
	source  Source
	results []Candidate
	err     error
	block   chan struct{}
	panics  bool
	calls   atomic.Int32
}

func (f *fakeSearcher) Source() Source { return f.source }

func (f *fakeSearcher) Search(_ context.Context, _ string, _ *spatial.Coordinate) ([]Candidate, error) {
	f.calls.Add(1)

	if f.block != nil {
		<-f.block // ignores ctx on purpose
	}

	if f.panics {
		panic("boom")
	}

	return f.results, f.err
}

// credSearcher only searches and needs a credential.
type credSearcher struct {
	fakeSearcher
	key CredentialKey
}

func (f *credSearcher) CredentialKey() CredentialKey { return f.key }

// fakePlaces needs a credential and also serves reverse and nearby.
type fakePlaces struct {
	fakeSearcher
	key        CredentialKey
	reverse    Candidate
	reverseErr error
	nearby     []Candidate
	nearbyErr  error
}

func (f *fakePlaces) CredentialKey() CredentialKey { return f.key }

func (f *fakePlaces) ReverseGeocode(context.Context, spatial.Coordinate) (Candidate, error) {
	f.calls.Add(1)

	return f.reverse, f.reverseErr
}

func (f *fakePlaces) Nearby(context.Context, spatial.Coordinate, []Category) ([]Candidate, error) {
	f.calls.Add(1)

	return f.nearby, f.nearbyErr
}

type fakeCommunity struct {
	fakeSearcher
	reverse    Candidate
	reverseErr error
}

func (f *fakeCommunity) ReverseGeocode(context.Context, spatial.Coordinate) (Candidate, error) {
	f.calls.Add(1)

	return f.reverse, f.reverseErr
}

func cand(name, address string, src Source, country string) Candidate {
	return Candidate{
		ID:         fmt.Sprintf("%s_%s", src, name),
		Name:       name,
		Address:    address,
		Coordinate: spatial.Coordinate{Lat: 24.86, Lng: 67.0},
		Category:   CategoryPlace,
		CountryTag: country,
		Source:     src,
	}
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}

	t.stopped = true

	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)

	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d

	var due []*fakeTimer

	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}
