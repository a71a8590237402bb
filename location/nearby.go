// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/jcodagnone/rideloc/spatial"
)

// MaxJitter is the largest displacement, in degrees per axis, applied to a
// synthetic nearby entry.
const MaxJitter = 0.005

// JitterFunc returns the displacement for the index-th synthetic entry around origin.
// Both values must lie in [-MaxJitter, MaxJitter].
type JitterFunc func(origin spatial.Coordinate, index int) (dLat, dLng float64)

// CellJitter derives the displacement from the H3 cell containing origin, so
// the same coordinate always produces the same placeholders.
func CellJitter(origin spatial.Coordinate, index int) (float64, float64) {
	seed, err := spatial.Cell(origin, spatial.CellResolution)
	if err != nil {
		seed = math.Float64bits(origin.Lat) ^ math.Float64bits(origin.Lng)
	}

	rng := rand.New(rand.NewPCG(seed, uint64(index)))

	return (rng.Float64()*2 - 1) * MaxJitter, (rng.Float64()*2 - 1) * MaxJitter
}

// NoJitter places every synthetic entry on the origin.
func NoJitter(spatial.Coordinate, int) (float64, float64) {
	return 0, 0
}

type placeholder struct {
	name     string
	category Category
	distance string
}

var nearbyCatalogue = []placeholder{
	{"Hospital", CategoryMedical, "2.5 km"},
	{"Gas Station", CategoryGasStation, "1.8 km"},
	{"ATM", CategoryBank, "0.5 km"},
	{"Restaurant", CategoryRestaurant, "1.2 km"},
	{"Pharmacy", CategoryMedical, "0.8 km"},
	{"Shopping Center", CategoryShopping, "1.5 km"},
	{"School", CategoryEducation, "2.0 km"},
	{"Park", CategoryLandmark, "1.0 km"},
}

// SyntheticNearby builds the placeholder list shown when no provider answered.
// A filter that matches no catalogue entry is ignored, so the list is never empty.
func SyntheticNearby(origin spatial.Coordinate, filter []Category, jitter JitterFunc) []Candidate {
	if jitter == nil {
		jitter = CellJitter
	}

	entries := make([]int, 0, len(nearbyCatalogue))

	for i, p := range nearbyCatalogue {
		if len(filter) == 0 || slices.Contains(filter, p.category) {
			entries = append(entries, i)
		}
	}

	if len(entries) == 0 {
		for i := range nearbyCatalogue {
			entries = append(entries, i)
		}
	}

	out := make([]Candidate, 0, len(entries))

	for _, i := range entries {
		p := nearbyCatalogue[i]
		dLat, dLng := jitter(origin, i)
		dLat = clampJitter(dLat)
		dLng = clampJitter(dLng)

		out = append(out, Candidate{
			ID:         fmt.Sprintf("nearby_%d", i),
			Name:       p.name,
			Address:    p.distance + " from your location",
			Coordinate: origin.Offset(dLat, dLng),
			Category:   p.category,
			Source:     SourceBuiltin,
			Synthetic:  true,
			Distance:   p.distance,
		})
	}

	return out
}

func clampJitter(d float64) float64 {
	return math.Max(-MaxJitter, math.Min(MaxJitter, d))
}

// Nearby lists places around c. It asks the commercial places adapter when
// its credential is present and falls back to SyntheticNearby when that yields
// nothing. An invalid coordinate returns an empty set.
func (r *Resolver) Nearby(ctx context.Context, c spatial.Coordinate, filter []Category) []Candidate {
	if err := c.Validate(); err != nil {
		r.report(SourceBuiltin, "nearby", NewProviderError(ProviderParseError, SourceBuiltin, "nearby", err))

		return []Candidate{}
	}

	var found []Candidate

	if ns, ok := r.places.(NearbySearcher); ok && r.available(r.places, r.places.Source(), "nearby", r.Credentials(ctx)) {
		found = r.nearby(ctx, r.places.Source(), ns, c, filter)
	}

	if len(found) == 0 {
		found = SyntheticNearby(c, filter, r.jitter)
	}

	return Truncate(Dedup(found), MaxResults)
}

func (r *Resolver) nearby(ctx context.Context, source Source, ns NearbySearcher, c spatial.Coordinate, filter []Category) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, r.branchTimeout)
	defer cancel()

	cands, err := withDeadline(ctx, func(ctx context.Context) ([]Candidate, error) {
		return ns.Nearby(ctx, c, filter)
	})
	if err != nil {
		r.report(source, "nearby", err)

		return nil
	}

	return r.sanitize(source, "nearby", cands)
}
