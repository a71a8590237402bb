// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"

	"github.com/jcodagnone/rideloc/spatial"
)

// SelectedLocationName labels reverse results whose provider gave no short name.
const SelectedLocationName = "Selected Location"

type reverseStep struct {
	source Source
	geo    ReverseGeocoder
}

// reverseChain lists the reverse geocoders to try, in order.
func (r *Resolver) reverseChain(creds ProviderCredentials) []reverseStep {
	var chain []reverseStep

	for _, s := range []Searcher{r.places, r.community} {
		if s == nil {
			continue
		}

		geo, ok := s.(ReverseGeocoder)
		if !ok || !r.available(s, s.Source(), "reverse_geocode", creds) {
			continue
		}

		chain = append(chain, reverseStep{source: s.Source(), geo: geo})
	}

	return chain
}

// ReverseGeocode resolves a coordinate into a place. It always returns a
// candidate: when every provider fails the result is CoordinateCandidate(c).
func (r *Resolver) ReverseGeocode(ctx context.Context, c spatial.Coordinate) Candidate {
	if err := c.Validate(); err != nil {
		r.report(SourceBuiltin, "reverse_geocode", NewProviderError(ProviderParseError, SourceBuiltin, "reverse_geocode", err))

		return CoordinateCandidate(c)
	}

	for _, step := range r.reverseChain(r.Credentials(ctx)) {
		cand, err := r.reverseStep(ctx, step, c)
		if err != nil {
			r.report(step.source, "reverse_geocode", err)

			continue
		}

		return cand
	}

	return CoordinateCandidate(c)
}

func (r *Resolver) reverseStep(ctx context.Context, step reverseStep, c spatial.Coordinate) (Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.branchTimeout)
	defer cancel()

	cand, err := withDeadline(ctx, func(ctx context.Context) (Candidate, error) {
		return step.geo.ReverseGeocode(ctx, c)
	})
	if err != nil {
		return Candidate{}, err
	}

	// The user picked c, so the candidate stays pinned there.
	cand.Coordinate = c
	if cand.Source == "" {
		cand.Source = step.source
	}

	if cand.Name == "" {
		cand.Name = SelectedLocationName
	}

	if cand.Address == "" {
		cand.Address = c.String()
	}

	if cand.ID == "" {
		cand.ID = fmt.Sprintf("%s_%s", step.source, coordinateID(c))
	}

	cand.Category = ParseCategory(string(cand.Category))

	return cand, nil
}

// CoordinateCandidate is the last-resort reverse result: name and address are
// the coordinate formatted with four decimals.
func CoordinateCandidate(c spatial.Coordinate) Candidate {
	label := c.String()

	return Candidate{
		ID:         "coordinate_" + coordinateID(c),
		Name:       label,
		Address:    label,
		Coordinate: c,
		Category:   CategoryCustom,
		Source:     SourceBuiltin,
		Synthetic:  true,
	}
}

func coordinateID(c spatial.Coordinate) string {
	return fmt.Sprintf("%.4f_%.4f", c.Lat, c.Lng)
}
