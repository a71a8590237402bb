// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Lat: 24.8607, Lng: 67.0011}
	assert.Equal(t, "24.8607, 67.0011", c.String())

	c = Coordinate{Lat: -33.86881234, Lng: 151.20929876}
	assert.Equal(t, "-33.8688, 151.2093", c.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{name: "karachi", c: Coordinate{Lat: 24.8607, Lng: 67.0011}},
		{name: "corners", c: Coordinate{Lat: -90, Lng: 180}},
		{name: "latitude too high", c: Coordinate{Lat: 91, Lng: 0}, wantErr: true},
		{name: "latitude too low", c: Coordinate{Lat: -91, Lng: 0}, wantErr: true},
		{name: "longitude too high", c: Coordinate{Lat: 0, Lng: 181}, wantErr: true},
		{name: "longitude too low", c: Coordinate{Lat: 0, Lng: -181}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCoordinate))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	karachi := Coordinate{Lat: 24.8607, Lng: 67.0011}
	lahore := Coordinate{Lat: 31.5204, Lng: 74.3587}

	// ~1030 km by great circle
	assert.InDelta(t, 1030e3, karachi.HaversineDistance(lahore), 20e3)
	assert.InDelta(t, 0, karachi.HaversineDistance(karachi), 1e-9)
}

func TestOffsetClamps(t *testing.T) {
	c := Coordinate{Lat: 89.999, Lng: 179.999}.Offset(0.005, 0.005)
	assert.Equal(t, Coordinate{Lat: 90, Lng: 180}, c)
}

func TestParse(t *testing.T) {
	c, err := Parse(" 24.8607", "67.0011 ")
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 24.8607, Lng: 67.0011}, c)

	_, err = Parse("abc", "1")
	require.Error(t, err)

	_, err = Parse("95", "1")
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	c, err = ParsePair("51.5074,-0.1278")
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 51.5074, Lng: -0.1278}, c)

	_, err = ParsePair("51.5074")
	require.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestCell(t *testing.T) {
	a, err := Cell(Coordinate{Lat: 24.8607, Lng: 67.0011}, CellResolution)
	require.NoError(t, err)

	b, err := Cell(Coordinate{Lat: 24.86071, Lng: 67.00111}, CellResolution)
	require.NoError(t, err)
	assert.Equal(t, a, b, "nearby points share a cell")

	c, err := Cell(Coordinate{Lat: 51.5074, Lng: -0.1278}, CellResolution)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = Cell(Coordinate{Lat: 100, Lng: 0}, CellResolution)
	require.Error(t, err)
}
