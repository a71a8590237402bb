// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"cmp"
	"slices"
)

// Dedup removes duplicates keeping the first occurrence of every (name, address) pair.
func Dedup(candidates []Candidate) []Candidate {
	type identity struct{ name, address string }

	seen := make(map[identity]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		id := identity{c.Name, c.Address}
		if seen[id] {
			continue
		}

		seen[id] = true

		out = append(out, c)
	}

	return out
}

// DedupNearby additionally drops candidates whose name equals an earlier
// candidate's and whose coordinate lies within meters of it.
func DedupNearby(candidates []Candidate, meters float64) []Candidate {
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		duplicate := false

		for _, kept := range out {
			if kept.Name == c.Name && kept.Coordinate.HaversineDistance(c.Coordinate) <= meters {
				duplicate = true

				break
			}
		}

		if !duplicate {
			out = append(out, c)
		}
	}

	return out
}

// Rank returns a stably sorted copy: candidates whose CountryTag equals
// homeRegion first, then by source priority, then by input order.
func Rank(candidates []Candidate, homeRegion string) []Candidate {
	out := slices.Clone(candidates)

	inHome := func(c Candidate) int {
		if homeRegion != "" && c.CountryTag == homeRegion {
			return 0
		}

		return 1
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Or(
			cmp.Compare(inHome(a), inHome(b)),
			cmp.Compare(a.Source.Priority(), b.Source.Priority()),
		)
	})

	return out
}

// Truncate caps the slice at limit entries.
func Truncate(candidates []Candidate, limit int) []Candidate {
	if limit >= 0 && len(candidates) > limit {
		return candidates[:limit]
	}

	return candidates
}

// MergeOptions tune Merge.
type MergeOptions struct {
	HomeRegion string
	Limit      int
	// ProximityMeters enables DedupNearby when positive.
	ProximityMeters float64
}

// Merge concatenates branch results in branch order, deduplicates, ranks and truncates.
func Merge(branches [][]Candidate, opts MergeOptions) []Candidate {
	var all []Candidate
	for _, b := range branches {
		all = append(all, b...)
	}

	unique := Dedup(all)
	if opts.ProximityMeters > 0 {
		unique = DedupNearby(unique, opts.ProximityMeters)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = MaxResults
	}

	return Truncate(Rank(unique, opts.HomeRegion), limit)
}
