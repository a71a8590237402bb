// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadius = 6371e3 // meters

// ErrInvalidCoordinate is returned when a coordinate falls outside the WGS84 range.
var ErrInvalidCoordinate = errors.New("spatial: invalid coordinate")

// Coordinate represents a geographical point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// String returns the coordinate formatted with 4 decimal places, "lat, lng".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

// Validate checks the coordinate against [-90,90]x[-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinate, c.Lat)
	}

	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinate, c.Lng)
	}

	return nil
}

// Offset returns the coordinate displaced by the given degrees, clamped to the valid range.
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	lat := math.Max(-90, math.Min(90, c.Lat+dLat))
	lng := math.Max(-180, math.Min(180, c.Lng+dLng))

	return Coordinate{Lat: lat, Lng: lng}
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (c Coordinate) HaversineDistance(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c2 := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c2
}

// Parse builds a validated coordinate from its textual latitude and longitude.
func Parse(lat, lng string) (Coordinate, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parsing latitude %q: %w", lat, err)
	}

	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parsing longitude %q: %w", lng, err)
	}

	c := Coordinate{Lat: la, Lng: lo}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

// ParsePair parses "lat,lng" as typed on a command line.
func ParsePair(s string) (Coordinate, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: expected \"lat,lng\", got %q", ErrInvalidCoordinate, s)
	}

	return Parse(lat, lng)
}
