// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package gazetteer is the builtin, offline place table. It always answers and
// needs no credential.
package gazetteer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
	"github.com/jcodagnone/rideloc/utils/textutils"
)

// Place is one entry of the table.
type Place struct {
	Name     string
	Address  string
	Lat, Lng float64
	Country  string
	Category location.Category
}

// Places is the builtin table.
var Places = []Place{
	// Pakistan
	{"Karachi", "Karachi, Sindh, Pakistan", 24.8607, 67.0011, "PK", location.CategoryCity},
	{"Lahore", "Lahore, Punjab, Pakistan", 31.5204, 74.3587, "PK", location.CategoryCity},
	{"Islamabad", "Islamabad, Pakistan", 33.6844, 73.0479, "PK", location.CategoryCity},
	{"Karachi Airport", "Jinnah International Airport, Karachi", 24.9056, 67.1608, "PK", location.CategoryAirport},
	{"Lahore Airport", "Allama Iqbal International Airport, Lahore", 31.5217, 74.4036, "PK", location.CategoryAirport},
	{"Badshahi Mosque", "Walled City, Lahore, Pakistan", 31.5881, 74.3142, "PK", location.CategoryLandmark},
	{"Faisal Mosque", "Islamabad, Pakistan", 33.7294, 73.0367, "PK", location.CategoryLandmark},

	// India
	{"Mumbai", "Mumbai, Maharashtra, India", 19.076, 72.8777, "IN", location.CategoryCity},
	{"Delhi", "New Delhi, India", 28.6139, 77.209, "IN", location.CategoryCity},
	{"Bangalore", "Bengaluru, Karnataka, India", 12.9716, 77.5946, "IN", location.CategoryCity},
	{"Taj Mahal", "Agra, Uttar Pradesh, India", 27.1751, 78.0421, "IN", location.CategoryLandmark},

	// United Arab Emirates
	{"Dubai", "Dubai, United Arab Emirates", 25.2048, 55.2708, "AE", location.CategoryCity},
	{"Abu Dhabi", "Abu Dhabi, United Arab Emirates", 24.4539, 54.3773, "AE", location.CategoryCity},
	{"Burj Khalifa", "Dubai, UAE", 25.1972, 55.2744, "AE", location.CategoryLandmark},

	// Saudi Arabia
	{"Riyadh", "Riyadh, Saudi Arabia", 24.7136, 46.6753, "SA", location.CategoryCity},
	{"Jeddah", "Jeddah, Saudi Arabia", 21.4858, 39.1925, "SA", location.CategoryCity},
	{"Mecca", "Makkah, Saudi Arabia", 21.3891, 39.8579, "SA", location.CategoryLandmark},

	// United States
	{"New York", "New York, NY, USA", 40.7128, -74.006, "US", location.CategoryCity},
	{"Los Angeles", "Los Angeles, CA, USA", 34.0522, -118.2437, "US", location.CategoryCity},
	{"Times Square", "Times Square, New York, NY", 40.758, -73.9855, "US", location.CategoryLandmark},

	// United Kingdom
	{"London", "London, United Kingdom", 51.5074, -0.1278, "GB", location.CategoryCity},
	{"Manchester", "Manchester, United Kingdom", 53.4808, -2.2426, "GB", location.CategoryCity},
	{"Big Ben", "Westminster, London, UK", 51.4994, -0.1245, "GB", location.CategoryLandmark},

	{"Tokyo", "Tokyo, Japan", 35.6762, 139.6503, "JP", location.CategoryCity},
	{"Paris", "Paris, France", 48.8566, 2.3522, "FR", location.CategoryCity},
	{"Sydney", "Sydney, Australia", -33.8688, 151.2093, "AU", location.CategoryCity},
	{"Singapore", "Singapore", 1.3521, 103.8198, "SG", location.CategoryCity},
	{"Hong Kong", "Hong Kong", 22.3193, 114.1694, "HK", location.CategoryCity},
}

// Gazetteer searches a fixed place table by name or address.
type Gazetteer struct {
	places []location.Candidate
	folded []string
}

// New builds a Gazetteer over places; nil means the builtin table.
func New(places []Place) *Gazetteer {
	if places == nil {
		places = Places
	}

	g := &Gazetteer{
		places: make([]location.Candidate, len(places)),
		folded: make([]string, len(places)),
	}

	for i, p := range places {
		g.places[i] = location.Candidate{
			ID:         "builtin_" + textutils.Snake(p.Name),
			Name:       p.Name,
			Address:    p.Address,
			Coordinate: spatial.Coordinate{Lat: p.Lat, Lng: p.Lng},
			Category:   p.Category,
			CountryTag: p.Country,
			Source:     location.SourceBuiltin,
		}
		g.folded[i] = textutils.Fold(p.Name) + "\x00" + textutils.Fold(p.Address)
	}

	return g
}

// Source implements location.Searcher.
func (g *Gazetteer) Source() location.Source {
	return location.SourceBuiltin
}

// Search returns the places whose name or address contains text, ignoring
// case and accents, in table order.
func (g *Gazetteer) Search(_ context.Context, text string, _ *spatial.Coordinate) ([]location.Candidate, error) {
	needle := textutils.Fold(text)
	if utf8.RuneCountInString(needle) < location.MinQueryLength {
		return nil, nil
	}

	var out []location.Candidate

	for i, hay := range g.folded {
		if strings.Contains(hay, needle) {
			out = append(out, g.places[i])
		}
	}

	return out, nil
}

// Len returns the number of places in the table.
func (g *Gazetteer) Len() int {
	return len(g.places)
}
