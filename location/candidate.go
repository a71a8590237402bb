// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"github.com/jcodagnone/rideloc/spatial"
)

// MaxResults is the size cap of a ResolvedSet.
const MaxResults = 25

// Category is the closed set of place kinds a candidate can have.
type Category string

const (
	CategoryCity       Category = "city"
	CategoryAirport    Category = "airport"
	CategoryTransit    Category = "transit"
	CategoryMedical    Category = "medical"
	CategoryRestaurant Category = "restaurant"
	CategoryGasStation Category = "gas_station"
	CategoryBank       Category = "bank"
	CategoryEducation  Category = "education"
	CategoryLandmark   Category = "landmark"
	CategoryShopping   Category = "shopping"
	CategoryCustom     Category = "custom"
	CategoryPlace      Category = "place"
)

var categories = map[Category]bool{
	CategoryCity:       true,
	CategoryAirport:    true,
	CategoryTransit:    true,
	CategoryMedical:    true,
	CategoryRestaurant: true,
	CategoryGasStation: true,
	CategoryBank:       true,
	CategoryEducation:  true,
	CategoryLandmark:   true,
	CategoryShopping:   true,
	CategoryCustom:     true,
	CategoryPlace:      true,
}

// ParseCategory maps a category name onto the closed set. Anything unknown is CategoryPlace.
func ParseCategory(s string) Category {
	if c := Category(s); categories[c] {
		return c
	}

	return CategoryPlace
}

// Source identifies the provider a candidate came from.
type Source string

const (
	SourceBuiltin            Source = "builtin"
	SourceCommercialPlaces   Source = "commercial_places"
	SourceCommercialGeocoder Source = "commercial_geocoder"
	SourceCommunityGeocoder  Source = "community_geocoder"
)

// Sources lists every source in priority order.
var Sources = []Source{
	SourceBuiltin,
	SourceCommercialPlaces,
	SourceCommercialGeocoder,
	SourceCommunityGeocoder,
}

// Priority returns the tie-breaking rank of the source; lower sorts first.
func (s Source) Priority() int {
	for i, src := range Sources {
		if src == s {
			return i
		}
	}

	return len(Sources)
}

// Candidate is one normalized place result from any provider.
// Candidates are values: nothing mutates them once built.
type Candidate struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Address    string             `json:"address"`
	Coordinate spatial.Coordinate `json:"coordinate"`
	Category   Category           `json:"category"`
	CountryTag string             `json:"country_tag,omitempty"`
	Source     Source             `json:"source"`
	Rating     *float64           `json:"rating,omitempty"`
	IsOpen     *bool              `json:"is_open,omitempty"`
	PriceLevel *int               `json:"price_level,omitempty"`

	// Synthetic marks placeholders built locally rather than returned by a provider.
	Synthetic bool `json:"synthetic,omitempty"`

	// Distance is the human hint carried by synthetic nearby entries.
	Distance string `json:"distance,omitempty"`
}

// SameIdentity reports whether two candidates are duplicates: exact, case-sensitive
// equality of name and address.
func (c Candidate) SameIdentity(o Candidate) bool {
	return c.Name == o.Name && c.Address == o.Address
}

// SearchQuery is one free-text request stamped by the Sequencer.
type SearchQuery struct {
	Text       string              `json:"text"`
	OriginHint *spatial.Coordinate `json:"origin_hint,omitempty"`
	Generation uint64              `json:"generation"`
}
