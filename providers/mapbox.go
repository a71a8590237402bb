// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
)

// MapboxBaseURL is the root of the Mapbox APIs.
const MapboxBaseURL = "https://api.mapbox.com"

const mapboxLimit = 20

// Mapbox uses the Mapbox Geocoding v5 forward endpoint.
type Mapbox struct {
	BaseURL string

	httpClient *http.Client
	store      location.CredentialStore
}

// NewMapbox creates a Mapbox adapter. The access token is read from the
// credential store on every call.
func NewMapbox(client *http.Client, store location.CredentialStore) *Mapbox {
	return &Mapbox{
		BaseURL:    MapboxBaseURL,
		httpClient: client,
		store:      store,
	}
}

func (m *Mapbox) Source() location.Source {
	return location.SourceCommercialGeocoder
}

func (m *Mapbox) CredentialKey() location.CredentialKey {
	return location.KeyCommercialGeocoder
}

type mapboxResponse struct {
	Features []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"` // [lng, lat]
		PlaceType []string  `json:"place_type"`
		Context   []struct {
			ID        string `json:"id"`
			ShortCode string `json:"short_code"`
		} `json:"context"`
		Properties struct {
			ShortCode string `json:"short_code"`
		} `json:"properties"`
	} `json:"features"`
	Message string `json:"message"`
}

// Search geocodes text, biased towards origin when given.
func (m *Mapbox) Search(ctx context.Context, text string, origin *spatial.Coordinate) ([]location.Candidate, error) {
	const op = "search"

	token, err := credential(ctx, m.store, m.CredentialKey(), m.Source(), op)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("access_token", token)
	params.Set("limit", fmt.Sprint(mapboxLimit))
	params.Set("types", "poi,address,place")

	if origin != nil {
		params.Set("proximity", fmt.Sprintf("%f,%f", origin.Lng, origin.Lat))
	}

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s", m.BaseURL, url.PathEscape(text), params.Encode())

	var resp mapboxResponse
	if err := getJSON(ctx, m.httpClient, m.Source(), op, reqURL, &resp); err != nil {
		return nil, err
	}

	out := make([]location.Candidate, 0, len(resp.Features))

	for _, f := range resp.Features {
		if len(f.Center) != 2 {
			continue
		}

		c := location.Candidate{
			ID:         f.ID,
			Name:       f.Text,
			Address:    f.PlaceName,
			Coordinate: spatial.Coordinate{Lat: f.Center[1], Lng: f.Center[0]},
			Category:   mapboxCategory(f.PlaceType),
			Source:     m.Source(),
		}

		for _, ctxEntry := range f.Context {
			if strings.HasPrefix(ctxEntry.ID, "country.") {
				c.CountryTag = strings.ToUpper(ctxEntry.ShortCode)
			}
		}

		if c.CountryTag == "" && strings.HasPrefix(f.ID, "country.") {
			c.CountryTag = strings.ToUpper(f.Properties.ShortCode)
		}

		out = append(out, c)
	}

	return out, nil
}
