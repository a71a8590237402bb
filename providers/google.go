// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
)

// GoogleMapsBaseURL is the root of the Google Maps web services.
const GoogleMapsBaseURL = "https://maps.googleapis.com/maps/api"

const (
	googleSearchLimit = 20
	googleNearbyLimit = 10
	// textSearchRadius biases text search around the origin hint, in meters.
	textSearchRadius = 50000
	nearbyRadius     = 10000
)

// GooglePlaces uses the Google Places text/nearby search and the Geocoding API.
// The API key is read from the credential store on every call.
type GooglePlaces struct {
	BaseURL string

	httpClient *http.Client
	store      location.CredentialStore

	mu         sync.Mutex
	lastStatus string
}

// NewGooglePlaces creates a Google Places adapter.
func NewGooglePlaces(client *http.Client, store location.CredentialStore) *GooglePlaces {
	return &GooglePlaces{
		BaseURL:    GoogleMapsBaseURL,
		httpClient: client,
		store:      store,
	}
}

func (g *GooglePlaces) Source() location.Source {
	return location.SourceCommercialPlaces
}

func (g *GooglePlaces) CredentialKey() location.CredentialKey {
	return location.KeyCommercialPlaces
}

// LastStatus returns the status field of the latest Google response.
func (g *GooglePlaces) LastStatus() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lastStatus
}

type googlePlace struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Vicinity         string `json:"vicinity"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Types        []string `json:"types"`
	Rating       *float64 `json:"rating"`
	PriceLevel   *int     `json:"price_level"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
}

type googlePlacesResponse struct {
	Results      []googlePlace `json:"results"`
	Status       string        `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED, INVALID_REQUEST
	ErrorMessage string        `json:"error_message"`
}

type googleGeocodeResponse struct {
	Results []struct {
		PlaceID           string `json:"place_id"`
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Types []string `json:"types"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// checkStatus records status and maps the non-OK ones onto the error taxonomy.
func (g *GooglePlaces) checkStatus(op, status, message string) error {
	g.mu.Lock()
	g.lastStatus = status
	g.mu.Unlock()

	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		return location.NewProviderError(location.NoResults, g.Source(), op, location.ErrNotFound).WithStatus(status)
	}

	if message == "" {
		message = "request failed"
	}

	return location.NewProviderError(location.ProviderTransportError, g.Source(), op, errors.New(message)).WithStatus(status)
}

func (g *GooglePlaces) candidate(p googlePlace, address string) location.Candidate {
	c := location.Candidate{
		ID:         p.PlaceID,
		Name:       p.Name,
		Address:    address,
		Coordinate: spatial.Coordinate{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
		Category:   googleCategory(p.Types),
		Source:     g.Source(),
		Rating:     p.Rating,
		PriceLevel: p.PriceLevel,
	}
	if p.OpeningHours != nil {
		c.IsOpen = p.OpeningHours.OpenNow
	}

	return c
}

// Search runs a text search, biased to a 50 km radius around origin when given.
func (g *GooglePlaces) Search(ctx context.Context, text string, origin *spatial.Coordinate) ([]location.Candidate, error) {
	const op = "search"

	key, err := credential(ctx, g.store, g.CredentialKey(), g.Source(), op)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", text)
	params.Set("key", key)

	if origin != nil {
		params.Set("location", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
		params.Set("radius", fmt.Sprint(textSearchRadius))
	}

	var resp googlePlacesResponse
	if err := getJSON(ctx, g.httpClient, g.Source(), op, g.BaseURL+"/place/textsearch/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if err := g.checkStatus(op, resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	out := make([]location.Candidate, 0, min(len(resp.Results), googleSearchLimit))
	for _, p := range resp.Results[:min(len(resp.Results), googleSearchLimit)] {
		out = append(out, g.candidate(p, p.FormattedAddress))
	}

	return out, nil
}

// Nearby lists places within 10 km of c matching the filter's type mask.
func (g *GooglePlaces) Nearby(ctx context.Context, c spatial.Coordinate, filter []location.Category) ([]location.Candidate, error) {
	const op = "nearby"

	key, err := credential(ctx, g.store, g.CredentialKey(), g.Source(), op)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", c.Lat, c.Lng))
	params.Set("radius", fmt.Sprint(nearbyRadius))
	params.Set("type", nearbyMask(filter))
	params.Set("key", key)

	var resp googlePlacesResponse
	if err := getJSON(ctx, g.httpClient, g.Source(), op, g.BaseURL+"/place/nearbysearch/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if err := g.checkStatus(op, resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	out := make([]location.Candidate, 0, min(len(resp.Results), googleNearbyLimit))
	for _, p := range resp.Results[:min(len(resp.Results), googleNearbyLimit)] {
		out = append(out, g.candidate(p, p.Vicinity))
	}

	return out, nil
}

// ReverseGeocode resolves c with the Geocoding API. The name is the first
// address component; the coordinate is c itself.
func (g *GooglePlaces) ReverseGeocode(ctx context.Context, c spatial.Coordinate) (location.Candidate, error) {
	const op = "reverse_geocode"

	key, err := credential(ctx, g.store, g.CredentialKey(), g.Source(), op)
	if err != nil {
		return location.Candidate{}, err
	}

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", c.Lat, c.Lng))
	params.Set("key", key)

	var resp googleGeocodeResponse
	if err := getJSON(ctx, g.httpClient, g.Source(), op, g.BaseURL+"/geocode/json?"+params.Encode(), &resp); err != nil {
		return location.Candidate{}, err
	}

	if err := g.checkStatus(op, resp.Status, resp.ErrorMessage); err != nil {
		return location.Candidate{}, err
	}

	if len(resp.Results) == 0 {
		return location.Candidate{}, location.NewProviderError(location.NoResults, g.Source(), op, location.ErrNotFound)
	}

	result := resp.Results[0]
	cand := location.Candidate{
		ID:         result.PlaceID,
		Name:       location.SelectedLocationName,
		Address:    result.FormattedAddress,
		Coordinate: c,
		Category:   googleCategory(result.Types),
		Source:     g.Source(),
	}

	if len(result.AddressComponents) > 0 && result.AddressComponents[0].LongName != "" {
		cand.Name = result.AddressComponents[0].LongName
	}

	for _, comp := range result.AddressComponents {
		for _, t := range comp.Types {
			if t == "country" {
				cand.CountryTag = comp.ShortName
			}
		}
	}

	return cand, nil
}
