// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	queries []string
	applied chan Result
}

func newRecorder() *recorder {
	return &recorder{applied: make(chan Result, 16)}
}

func (r *recorder) resolve(_ context.Context, q SearchQuery) []Candidate {
	r.mu.Lock()
	r.queries = append(r.queries, q.Text)
	r.mu.Unlock()

	return []Candidate{{Name: q.Text}}
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.queries...)
}

func (r *recorder) next(t *testing.T) Result {
	t.Helper()

	select {
	case res := <-r.applied:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result applied")

		return Result{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()

	select {
	case res := <-r.applied:
		t.Fatalf("unexpected result for %q", res.Query.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSequencer_Debounce(t *testing.T) {
	clock := &fakeClock{}
	rec := newRecorder()
	s := NewSequencer(rec.resolve, func(r Result) { rec.applied <- r }, WithClock(clock))
	t.Cleanup(s.Close)

	assert.EqualValues(t, 1, s.OnQueryChanged("Lon", nil))
	clock.Advance(100 * time.Millisecond)
	assert.EqualValues(t, 2, s.OnQueryChanged("London", nil))
	clock.Advance(299 * time.Millisecond)

	state, gen := s.State()
	assert.Equal(t, StatePending, state)
	assert.EqualValues(t, 2, gen)
	assert.Empty(t, rec.seen())

	clock.Advance(time.Millisecond)

	res := rec.next(t)
	assert.Equal(t, "London", res.Query.Text)
	assert.EqualValues(t, 2, res.Query.Generation)
	assert.Equal(t, []string{"London"}, rec.seen())
	rec.none(t)

	state, _ = s.State()
	assert.Equal(t, StateApplied, state)

	stats := s.Stats()
	assert.EqualValues(t, 1, stats.Applied)
	assert.EqualValues(t, 1, stats.Superseded)
}

func TestSequencer_StaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	canceled := make(chan bool, 1)
	applied := make(chan Result, 4)

	resolve := func(ctx context.Context, q SearchQuery) []Candidate {
		started <- q.Text

		if q.Text == "Lon" {
			<-release
			canceled <- ctx.Err() != nil
		}

		return []Candidate{{Name: q.Text}}
	}

	s := NewSequencer(resolve, func(r Result) { applied <- r }, WithClock(&fakeClock{}))
	t.Cleanup(s.Close)

	s.Submit("Lon", nil)
	require.Equal(t, "Lon", <-started)

	s.Submit("London", nil)
	require.Equal(t, "London", <-started)

	res := <-applied
	assert.Equal(t, "London", res.Query.Text)

	close(release)
	assert.True(t, <-canceled, "superseded search sees a cancelled context")

	require.Eventually(t, func() bool { return s.Stats().Discarded == 1 }, 2*time.Second, 5*time.Millisecond)

	select {
	case r := <-applied:
		t.Fatalf("stale result applied: %q", r.Query.Text)
	default:
	}

	stats := s.Stats()
	assert.EqualValues(t, 1, stats.Applied)
	assert.EqualValues(t, 1, stats.Superseded)
}

func TestSequencer_SubmitBypassesDebounce(t *testing.T) {
	clock := &fakeClock{}
	rec := newRecorder()
	s := NewSequencer(rec.resolve, func(r Result) { rec.applied <- r }, WithClock(clock))
	t.Cleanup(s.Close)

	s.OnQueryChanged("Kar", nil)
	s.Submit("Karachi", nil)

	res := rec.next(t)
	assert.Equal(t, "Karachi", res.Query.Text)

	clock.Advance(time.Second)
	rec.none(t)
	assert.Equal(t, []string{"Karachi"}, rec.seen())
}

func TestSequencer_Close(t *testing.T) {
	clock := &fakeClock{}
	rec := newRecorder()
	s := NewSequencer(rec.resolve, func(r Result) { rec.applied <- r }, WithClock(clock))

	s.OnQueryChanged("Dubai", nil)
	s.Close()
	clock.Advance(time.Second)

	assert.Zero(t, s.OnQueryChanged("Dubai Mall", nil))
	assert.Zero(t, s.Submit("Dubai Mall", nil))
	rec.none(t)
	assert.Empty(t, rec.seen())

	state, _ := s.State()
	assert.Equal(t, StateSuperseded, state)

	s.Close()
}

func TestSequencer_WithResolver(t *testing.T) {
	rig := newRig(nil)
	rig.builtin.results = []Candidate{cand("Riyadh", "Riyadh, Saudi Arabia", SourceBuiltin, "SA")}

	applied := make(chan Result, 1)
	s := NewSequencer(ResolverFunc(rig.resolver()), func(r Result) { applied <- r }, WithQuietInterval(time.Millisecond))
	t.Cleanup(s.Close)

	s.OnQueryChanged("Riy", nil)

	select {
	case res := <-applied:
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "Riyadh", res.Candidates[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
}
