// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("Karachi\n\n  # comment\n 24.86,67.00 \nLahore Airport\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Karachi", "24.86,67.00", "Lahore Airport"}, lines)
}

func TestCoordinateArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    spatial.Coordinate
		wantErr bool
	}{
		{args: []string{"24.8607,67.0011"}, want: spatial.Coordinate{Lat: 24.8607, Lng: 67.0011}},
		{args: []string{"24.8607", "67.0011"}, want: spatial.Coordinate{Lat: 24.8607, Lng: 67.0011}},
		{args: []string{"north"}, wantErr: true},
		{args: []string{"1", "2", "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := coordinateArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("RIDELOC_TEST_REGION", "UY")
	assert.Equal(t, "UY", envOr("RIDELOC_TEST_REGION", "PK"))

	t.Setenv("RIDELOC_TEST_REGION", "")
	assert.Equal(t, "PK", envOr("RIDELOC_TEST_REGION", "PK"))
}

func TestPrintCandidates(t *testing.T) {
	cands := []location.Candidate{{
		ID:         "builtin_karachi",
		Name:       "Karachi",
		Coordinate: spatial.Coordinate{Lat: 24.8607, Lng: 67.0011},
		Category:   location.CategoryCity,
		Source:     location.SourceBuiltin,
	}}

	var buf bytes.Buffer
	require.NoError(t, printCandidates(&buf, cands))
	assert.Contains(t, buf.String(), "Karachi")
	assert.Contains(t, buf.String(), "24.8607, 67.0011")

	buf.Reset()
	require.NoError(t, printCandidates(&buf, nil))
	assert.Equal(t, "No results\n", buf.String())
}
