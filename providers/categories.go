// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"slices"
	"strings"

	"github.com/jcodagnone/rideloc/location"
)

// googleTypeRules are checked in order; the first rule with a matching type wins.
var googleTypeRules = []struct {
	category location.Category
	types    []string
}{
	{location.CategoryAirport, []string{"airport"}},
	{location.CategoryTransit, []string{"transit_station", "subway_station", "train_station"}},
	{location.CategoryMedical, []string{"hospital", "pharmacy"}},
	{location.CategoryRestaurant, []string{"restaurant", "food"}},
	{location.CategoryGasStation, []string{"gas_station"}},
	{location.CategoryBank, []string{"bank", "atm"}},
	{location.CategoryEducation, []string{"school", "university"}},
	{location.CategoryLandmark, []string{"tourist_attraction", "museum"}},
	{location.CategoryShopping, []string{"shopping_mall", "store"}},
	{location.CategoryCity, []string{"locality", "administrative_area_level_1"}},
}

// googleCategory maps Google place types onto the candidate categories.
func googleCategory(types []string) location.Category {
	for _, rule := range googleTypeRules {
		for _, t := range rule.types {
			if slices.Contains(types, t) {
				return rule.category
			}
		}
	}

	return location.CategoryPlace
}

// defaultNearbyTypes is the nearby search mask used without a filter.
const defaultNearbyTypes = "restaurant|gas_station|hospital|atm"

var nearbyTypes = map[location.Category]string{
	location.CategoryRestaurant: "restaurant",
	location.CategoryGasStation: "gas_station",
	location.CategoryMedical:    "hospital",
	location.CategoryBank:       "atm",
	location.CategoryEducation:  "school",
	location.CategoryShopping:   "shopping_mall",
	location.CategoryLandmark:   "tourist_attraction",
	location.CategoryTransit:    "transit_station",
	location.CategoryAirport:    "airport",
}

// nearbyMask builds the Google type mask for a category filter.
func nearbyMask(filter []location.Category) string {
	var types []string

	for _, c := range filter {
		if t, ok := nearbyTypes[c]; ok && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}

	if len(types) == 0 {
		return defaultNearbyTypes
	}

	return strings.Join(types, "|")
}

// mapboxCategory maps a Mapbox place_type list.
func mapboxCategory(placeTypes []string) location.Category {
	switch {
	case slices.Contains(placeTypes, "poi"):
		return location.CategoryLandmark
	case slices.Contains(placeTypes, "place"):
		return location.CategoryCity
	default:
		return location.CategoryPlace
	}
}

// nominatimCategory maps an OSM (class, type) pair.
func nominatimCategory(class, typ string) location.Category {
	switch class {
	case "amenity":
		switch typ {
		case "restaurant", "cafe", "fast_food":
			return location.CategoryRestaurant
		case "hospital", "pharmacy":
			return location.CategoryMedical
		case "fuel":
			return location.CategoryGasStation
		case "bank", "atm":
			return location.CategoryBank
		case "school", "university":
			return location.CategoryEducation
		}
	case "tourism":
		return location.CategoryLandmark
	case "shop":
		return location.CategoryShopping
	case "railway", "public_transport":
		return location.CategoryTransit
	case "aeroway":
		return location.CategoryAirport
	case "place":
		return location.CategoryCity
	}

	return location.CategoryPlace
}
