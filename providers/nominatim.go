// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
)

// NominatimBaseURL is the public OpenStreetMap Nominatim instance.
const NominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimInterval is the request spacing required by the public instance's usage policy.
const NominatimInterval = time.Second

const (
	nominatimLimit = 20
	// viewboxDegrees is the half-size of the search bias box around the origin.
	viewboxDegrees = 2.0
)

// Nominatim queries an OpenStreetMap Nominatim server. It needs no credential.
type Nominatim struct {
	BaseURL string

	httpClient *http.Client
}

// NewNominatim creates a Nominatim adapter with its own client. A zero
// MinInterval defaults to NominatimInterval; a negative one disables the limiter.
func NewNominatim(opts ClientOptions) *Nominatim {
	if opts.MinInterval == 0 {
		opts.MinInterval = NominatimInterval
	}

	return &Nominatim{
		BaseURL:    NominatimBaseURL,
		httpClient: NewHTTPClient(opts),
	}
}

func (n *Nominatim) Source() location.Source {
	return location.SourceCommunityGeocoder
}

type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
	Error string `json:"error"`
}

func (n *Nominatim) candidate(p nominatimPlace) (location.Candidate, error) {
	coord, err := spatial.Parse(p.Lat, p.Lon)
	if err != nil {
		return location.Candidate{}, err
	}

	class := p.Class
	if class == "" {
		class = p.Category
	}

	name, _, _ := strings.Cut(p.DisplayName, ",")

	return location.Candidate{
		ID:         fmt.Sprintf("osm_%d", p.PlaceID),
		Name:       strings.TrimSpace(name),
		Address:    p.DisplayName,
		Coordinate: coord,
		Category:   nominatimCategory(class, p.Type),
		CountryTag: strings.ToUpper(p.Address.CountryCode),
		Source:     n.Source(),
	}, nil
}

// Search runs a free-form query, biased to a box around origin when given.
func (n *Nominatim) Search(ctx context.Context, text string, origin *spatial.Coordinate) ([]location.Candidate, error) {
	const op = "search"

	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(nominatimLimit))
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")

	if origin != nil {
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			origin.Lng-viewboxDegrees, origin.Lat+viewboxDegrees,
			origin.Lng+viewboxDegrees, origin.Lat-viewboxDegrees))
		params.Set("bounded", "0")
	}

	var resp []nominatimPlace
	if err := getJSON(ctx, n.httpClient, n.Source(), op, n.BaseURL+"/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]location.Candidate, 0, len(resp))

	var errs []error

	for _, p := range resp {
		c, err := n.candidate(p)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		out = append(out, c)
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, location.NewProviderError(location.ProviderParseError, n.Source(), op, errors.Join(errs...))
	}

	return out, nil
}

// ReverseGeocode resolves c into the nearest OSM object.
func (n *Nominatim) ReverseGeocode(ctx context.Context, c spatial.Coordinate) (location.Candidate, error) {
	const op = "reverse_geocode"

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(c.Lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var resp nominatimPlace
	if err := getJSON(ctx, n.httpClient, n.Source(), op, n.BaseURL+"/reverse?"+params.Encode(), &resp); err != nil {
		return location.Candidate{}, err
	}

	if resp.Error != "" || resp.DisplayName == "" {
		return location.Candidate{}, location.NewProviderError(location.NoResults, n.Source(), op, location.ErrNotFound)
	}

	// Reverse answers stay pinned to the requested point.
	resp.Lat = strconv.FormatFloat(c.Lat, 'f', -1, 64)
	resp.Lon = strconv.FormatFloat(c.Lng, 'f', -1, 64)

	cand, err := n.candidate(resp)
	if err != nil {
		return location.Candidate{}, location.NewProviderError(location.ProviderParseError, n.Source(), op, err)
	}

	return cand, nil
}
