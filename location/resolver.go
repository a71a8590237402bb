// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jcodagnone/rideloc/spatial"
	"golang.org/x/sync/errgroup"
)

// DefaultBranchTimeout bounds every provider call made by the Resolver.
const DefaultBranchTimeout = 6 * time.Second

// MinQueryLength is the shortest trimmed query that reaches the providers.
const MinQueryLength = 2

// Resolver fans queries out to the configured adapters and merges their answers.
// It keeps no state between calls beyond its configuration and is safe for
// concurrent use.
type Resolver struct {
	store CredentialStore

	builtin   Searcher
	places    Searcher
	geocoder  Searcher
	community Searcher

	homeRegion      string
	branchTimeout   time.Duration
	diagnostics     DiagnosticsSink
	jitter          JitterFunc
	proximityMeters float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBuiltin registers the in-memory gazetteer.
func WithBuiltin(s Searcher) Option {
	return func(r *Resolver) { r.builtin = s }
}

// WithCommercialPlaces registers the commercial places adapter. When it also
// implements ReverseGeocoder or NearbySearcher those capabilities are used by
// ReverseGeocode and Nearby.
func WithCommercialPlaces(s Searcher) Option {
	return func(r *Resolver) { r.places = s }
}

// WithCommercialGeocoder registers the commercial geocoding adapter.
func WithCommercialGeocoder(s Searcher) Option {
	return func(r *Resolver) { r.geocoder = s }
}

// WithCommunityGeocoder registers the always-available community geocoder.
func WithCommunityGeocoder(s Searcher) Option {
	return func(r *Resolver) { r.community = s }
}

// WithHomeRegion sets the country tag that ranks first. Tags are ISO codes
// in upper case, as every adapter emits them.
func WithHomeRegion(tag string) Option {
	return func(r *Resolver) { r.homeRegion = strings.ToUpper(strings.TrimSpace(tag)) }
}

// WithBranchTimeout overrides DefaultBranchTimeout.
func WithBranchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.branchTimeout = d
		}
	}
}

// WithDiagnostics sets the sink that receives provider failures.
func WithDiagnostics(sink DiagnosticsSink) Option {
	return func(r *Resolver) { r.diagnostics = sink }
}

// WithJitter replaces the placeholder displacement used by the synthetic nearby list.
func WithJitter(j JitterFunc) Option {
	return func(r *Resolver) { r.jitter = j }
}

// WithProximityDedup also merges same-name candidates closer than meters.
// Zero keeps the exact (name, address) rule only.
func WithProximityDedup(meters float64) Option {
	return func(r *Resolver) { r.proximityMeters = meters }
}

// NewResolver builds a Resolver reading credentials from store at call time.
func NewResolver(store CredentialStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:         store,
		branchTimeout: DefaultBranchTimeout,
		diagnostics:   LogSink{},
		jitter:        CellJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HomeRegion returns the configured home region tag.
func (r *Resolver) HomeRegion() string {
	return r.homeRegion
}

func (r *Resolver) report(provider Source, op string, err error) {
	if r.diagnostics == nil || err == nil {
		return
	}

	r.diagnostics.Report(newDiagnostic(provider, op, err))
}

// Credentials returns the current credential snapshot.
func (r *Resolver) Credentials(ctx context.Context) ProviderCredentials {
	creds, err := LoadCredentials(ctx, r.store)
	if err != nil {
		r.report(SourceBuiltin, "credentials", NewProviderError(ProviderUnavailable, SourceBuiltin, "credentials", err))
	}

	return creds
}

// available reports whether s can run with the given credentials, reporting
// the skip when it cannot.
func (r *Resolver) available(s any, source Source, op string, creds ProviderCredentials) bool {
	if s == nil {
		return false
	}

	c, ok := s.(Credentialed)
	if !ok || creds.Has(c.CredentialKey()) {
		return true
	}

	r.report(source, op, NewProviderError(ProviderUnavailable, source, op,
		fmt.Errorf("no %s credential configured", c.CredentialKey())))

	return false
}

func (r *Resolver) searchers() []Searcher {
	var out []Searcher

	for _, s := range []Searcher{r.builtin, r.places, r.geocoder, r.community} {
		if s != nil {
			out = append(out, s)
		}
	}

	return out
}

// Resolve runs a forward search over every applicable adapter and returns the
// merged, deduplicated, ranked and truncated result. It never fails: broken
// branches contribute nothing. Queries shorter than MinQueryLength return an
// empty set without calling any adapter.
func (r *Resolver) Resolve(ctx context.Context, text string, origin *spatial.Coordinate) []Candidate {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinQueryLength {
		return []Candidate{}
	}

	if origin != nil && origin.Validate() != nil {
		origin = nil
	}

	creds := r.Credentials(ctx)

	var branches []Searcher

	for _, s := range r.searchers() {
		if r.available(s, s.Source(), "search", creds) {
			branches = append(branches, s)
		}
	}

	results := make([][]Candidate, len(branches))

	var g errgroup.Group

	for i, s := range branches {
		g.Go(func() error {
			results[i] = r.search(ctx, s, text, origin)

			return nil
		})
	}

	_ = g.Wait()

	return Merge(results, MergeOptions{
		HomeRegion:      r.homeRegion,
		Limit:           MaxResults,
		ProximityMeters: r.proximityMeters,
	})
}

func (r *Resolver) search(ctx context.Context, s Searcher, text string, origin *spatial.Coordinate) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, r.branchTimeout)
	defer cancel()

	cands, err := withDeadline(ctx, func(ctx context.Context) ([]Candidate, error) {
		return s.Search(ctx, text, origin)
	})
	if err != nil {
		r.report(s.Source(), "search", err)

		return nil
	}

	return r.sanitize(s.Source(), "search", cands)
}

// sanitize drops candidates with invalid coordinates, stamps the source and
// folds unknown categories into CategoryPlace.
func (r *Resolver) sanitize(source Source, op string, cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	dropped := 0

	for _, c := range cands {
		if c.Coordinate.Validate() != nil {
			dropped++

			continue
		}

		if c.Source == "" {
			c.Source = source
		}

		c.Category = ParseCategory(string(c.Category))
		out = append(out, c)
	}

	if dropped > 0 {
		r.report(source, op, NewProviderError(ProviderParseError, source, op,
			fmt.Errorf("dropped %d candidates with invalid coordinates", dropped)))
	}

	return out
}

// withDeadline runs fn and gives up as soon as ctx is done, even if fn does
// not honour ctx. Panics in fn become errors.
func withDeadline[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	ch := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: fmt.Errorf("adapter panic: %v", p)}
			}
		}()

		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// ProviderStatus describes one registered adapter.
type ProviderStatus struct {
	Source       Source   `json:"source"`
	Configured   bool     `json:"configured"`
	Capabilities []string `json:"capabilities"`
}

// Providers lists the registered adapters and whether they can run right now.
func (r *Resolver) Providers(ctx context.Context) []ProviderStatus {
	creds := r.Credentials(ctx)

	var out []ProviderStatus

	for _, s := range r.searchers() {
		st := ProviderStatus{Source: s.Source(), Configured: true, Capabilities: []string{"search"}}
		if c, ok := s.(Credentialed); ok {
			st.Configured = creds.Has(c.CredentialKey())
		}

		if _, ok := s.(ReverseGeocoder); ok {
			st.Capabilities = append(st.Capabilities, "reverse_geocode")
		}

		if _, ok := s.(NearbySearcher); ok {
			st.Capabilities = append(st.Capabilities, "nearby")
		}

		out = append(out, st)
	}

	return out
}
