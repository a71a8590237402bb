// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// CellResolution is the H3 resolution used to bucket coordinates (~0.1 km² cells).
const CellResolution = 9

// Cell returns the H3 cell that contains the coordinate at the given resolution.
func Cell(c Coordinate, res int) (uint64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return uint64(cell), nil
}
