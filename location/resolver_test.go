// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jcodagnone/rideloc/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRig struct {
	store     *mapStore
	builtin   *fakeSearcher
	places    *fakePlaces
	geocoder  *credSearcher
	community *fakeCommunity
	sink      *RecordingSink
}

func newRig(keys map[CredentialKey]string) *testRig {
	return &testRig{
		store:   newMapStore(keys),
		builtin: &fakeSearcher{source: SourceBuiltin},
		places: &fakePlaces{
			fakeSearcher: fakeSearcher{source: SourceCommercialPlaces},
			key:          KeyCommercialPlaces,
		},
		geocoder: &credSearcher{
			fakeSearcher: fakeSearcher{source: SourceCommercialGeocoder},
			key:          KeyCommercialGeocoder,
		},
		community: &fakeCommunity{fakeSearcher: fakeSearcher{source: SourceCommunityGeocoder}},
		sink:      NewRecordingSink(100),
	}
}

func (r *testRig) resolver(opts ...Option) *Resolver {
	base := []Option{
		WithBuiltin(r.builtin),
		WithCommercialPlaces(r.places),
		WithCommercialGeocoder(r.geocoder),
		WithCommunityGeocoder(r.community),
		WithDiagnostics(r.sink),
		WithHomeRegion("PK"),
	}

	return NewResolver(r.store, append(base, opts...)...)
}

func (r *testRig) kinds() map[Source][]ErrorKind {
	out := map[Source][]ErrorKind{}
	for _, d := range r.sink.Entries() {
		out[d.Provider] = append(out[d.Provider], d.Kind)
	}

	return out
}

func allKeys() map[CredentialKey]string {
	return map[CredentialKey]string{
		KeyCommercialPlaces:   "places-key",
		KeyCommercialGeocoder: "geocoder-token",
	}
}

func TestResolve_ShortQuery(t *testing.T) {
	rig := newRig(allKeys())
	r := rig.resolver()

	for _, q := range []string{"", "a", "  a  ", "\t", "é"} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			out := r.Resolve(context.Background(), q, nil)
			assert.NotNil(t, out)
			assert.Empty(t, out)
		})
	}

	assert.Zero(t, rig.builtin.calls.Load())
	assert.Zero(t, rig.places.calls.Load())
	assert.Zero(t, rig.geocoder.calls.Load())
	assert.Zero(t, rig.community.calls.Load())
}

func TestResolve_AllBranches(t *testing.T) {
	rig := newRig(allKeys())
	rig.builtin.results = []Candidate{cand("Karachi", "Karachi, Sindh, Pakistan", SourceBuiltin, "PK")}
	rig.places.results = []Candidate{cand("Karachi Airport", "Jinnah International", SourceCommercialPlaces, "")}
	rig.geocoder.results = []Candidate{cand("Karachi", "Karachi, Sindh, Pakistan", SourceCommercialGeocoder, "PK")}
	rig.community.results = []Candidate{
		cand("Karachi", "Karachi, Sindh, Pakistan", SourceCommunityGeocoder, "PK"),
		cand("Karachi Bakery", "Hyderabad, India", SourceCommunityGeocoder, "IN"),
	}

	out := rig.resolver().Resolve(context.Background(), "Kara", nil)

	require.Len(t, out, 3)
	assert.Equal(t, SourceBuiltin, out[0].Source)
	assert.Equal(t, "Karachi Airport", out[1].Name)
	assert.Equal(t, "Karachi Bakery", out[2].Name)

	for _, f := range []*fakeSearcher{rig.builtin, &rig.places.fakeSearcher, &rig.geocoder.fakeSearcher, &rig.community.fakeSearcher} {
		assert.EqualValues(t, 1, f.calls.Load(), f.source)
	}
}

func TestResolve_GracefulDegradation(t *testing.T) {
	rig := newRig(nil)
	rig.builtin.results = []Candidate{cand("Lahore", "Lahore, Punjab, Pakistan", SourceBuiltin, "PK")}
	rig.places.results = []Candidate{cand("never", "seen", SourceCommercialPlaces, "")}
	rig.community.err = NewProviderError(ProviderTransportError, SourceCommunityGeocoder, "search", errors.New("connection refused"))

	out := rig.resolver().Resolve(context.Background(), "Lahore", nil)

	require.Len(t, out, 1)
	assert.Equal(t, "Lahore", out[0].Name)
	assert.Zero(t, rig.places.calls.Load())
	assert.Zero(t, rig.geocoder.calls.Load())

	kinds := rig.kinds()
	assert.Equal(t, []ErrorKind{ProviderUnavailable}, kinds[SourceCommercialPlaces])
	assert.Equal(t, []ErrorKind{ProviderUnavailable}, kinds[SourceCommercialGeocoder])
	assert.Equal(t, []ErrorKind{ProviderTransportError}, kinds[SourceCommunityGeocoder])
}

func TestResolve_HomeRegionFirst(t *testing.T) {
	rig := newRig(allKeys())
	rig.builtin.results = []Candidate{cand("Springfield", "Springfield, USA", SourceBuiltin, "US")}
	rig.community.results = []Candidate{cand("Springfield School", "Lahore, Pakistan", SourceCommunityGeocoder, "PK")}

	out := rig.resolver().Resolve(context.Background(), "Springfield", nil)

	require.Len(t, out, 2)
	assert.Equal(t, "PK", out[0].CountryTag)
	assert.Equal(t, "US", out[1].CountryTag)
}

func TestWithHomeRegion_Normalizes(t *testing.T) {
	rig := newRig(allKeys())
	r := rig.resolver(WithHomeRegion(" pk "))
	assert.Equal(t, "PK", r.HomeRegion())
}

func TestResolve_Deterministic(t *testing.T) {
	rig := newRig(allKeys())
	for i := range 10 {
		rig.community.results = append(rig.community.results,
			cand(fmt.Sprintf("C%d", i), "c", SourceCommunityGeocoder, []string{"PK", "US"}[i%2]))
		rig.places.results = append(rig.places.results,
			cand(fmt.Sprintf("P%d", i), "p", SourceCommercialPlaces, []string{"US", "PK"}[i%2]))
	}

	r := rig.resolver()
	first := r.Resolve(context.Background(), "query", nil)

	for range 5 {
		assert.Equal(t, first, r.Resolve(context.Background(), "query", nil))
	}
}

func TestResolve_Truncates(t *testing.T) {
	rig := newRig(nil)
	for i := range 40 {
		rig.community.results = append(rig.community.results,
			cand(fmt.Sprintf("Place %d", i), "addr", SourceCommunityGeocoder, ""))
	}

	out := rig.resolver().Resolve(context.Background(), "place", nil)
	assert.Len(t, out, MaxResults)
}

func TestResolve_CredentialHotReload(t *testing.T) {
	rig := newRig(nil)
	rig.places.results = []Candidate{cand("Dolmen Mall", "Clifton, Karachi", SourceCommercialPlaces, "PK")}
	r := rig.resolver()

	assert.Empty(t, r.Resolve(context.Background(), "dolmen", nil))
	assert.Zero(t, rig.places.calls.Load())

	rig.store.set(KeyCommercialPlaces, "fresh-key")

	out := r.Resolve(context.Background(), "dolmen", nil)
	require.Len(t, out, 1)
	assert.Equal(t, "Dolmen Mall", out[0].Name)
	assert.EqualValues(t, 1, rig.places.calls.Load())
}

func TestResolve_BranchTimeoutIsolation(t *testing.T) {
	rig := newRig(nil)
	rig.builtin.results = []Candidate{cand("Islamabad", "Islamabad, Pakistan", SourceBuiltin, "PK")}
	rig.community.block = make(chan struct{})
	t.Cleanup(func() { close(rig.community.block) })

	start := time.Now()
	out := rig.resolver(WithBranchTimeout(50*time.Millisecond)).Resolve(context.Background(), "islamabad", nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, out, 1)
	assert.Equal(t, "Islamabad", out[0].Name)

	diags := rig.sink.Entries()
	require.NotEmpty(t, diags)

	var timedOut bool
	for _, d := range diags {
		if d.Provider == SourceCommunityGeocoder && d.Kind == ProviderTransportError {
			timedOut = true
		}
	}

	assert.True(t, timedOut)
}

func TestResolve_PanickingBranch(t *testing.T) {
	rig := newRig(nil)
	rig.builtin.results = []Candidate{cand("Delhi", "Delhi, India", SourceBuiltin, "IN")}
	rig.community.panics = true

	out := rig.resolver().Resolve(context.Background(), "delhi", nil)

	require.Len(t, out, 1)
	assert.Contains(t, rig.kinds(), SourceCommunityGeocoder)
}

func TestResolve_DropsInvalidCoordinates(t *testing.T) {
	rig := newRig(nil)
	bad := cand("Nowhere", "nowhere", "", "")
	bad.Coordinate = spatial.Coordinate{Lat: 123, Lng: 0}
	odd := cand("Somewhere", "somewhere", "", "")
	odd.Category = "volcano"
	rig.community.results = []Candidate{bad, odd}

	out := rig.resolver().Resolve(context.Background(), "where", nil)

	require.Len(t, out, 1)
	assert.Equal(t, SourceCommunityGeocoder, out[0].Source)
	assert.Equal(t, CategoryPlace, out[0].Category)
	assert.Equal(t, []ErrorKind{ProviderParseError}, rig.kinds()[SourceCommunityGeocoder])
}

func TestResolver_Providers(t *testing.T) {
	rig := newRig(map[CredentialKey]string{KeyCommercialGeocoder: "token"})

	status := rig.resolver().Providers(context.Background())
	require.Len(t, status, 4)

	assert.Equal(t, SourceBuiltin, status[0].Source)
	assert.True(t, status[0].Configured)
	assert.False(t, status[1].Configured)
	assert.Equal(t, []string{"search", "reverse_geocode", "nearby"}, status[1].Capabilities)
	assert.True(t, status[2].Configured)
	assert.Equal(t, []string{"search"}, status[2].Capabilities)
	assert.Equal(t, []string{"search", "reverse_geocode"}, status[3].Capabilities)
}
