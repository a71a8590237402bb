// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"fmt"

	"github.com/jcodagnone/rideloc/spatial"
)

// Searcher is the forward-search capability every adapter has.
type Searcher interface {
	Source() Source
	Search(ctx context.Context, text string, origin *spatial.Coordinate) ([]Candidate, error)
}

// ReverseGeocoder turns a coordinate into a place. It returns an error
// matching ErrNotFound when the provider has nothing for the coordinate.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, c spatial.Coordinate) (Candidate, error)
}

// NearbySearcher lists places around a coordinate. An empty filter means the
// adapter's default category mask.
type NearbySearcher interface {
	Nearby(ctx context.Context, c spatial.Coordinate, filter []Category) ([]Candidate, error)
}

// Credentialed is implemented by adapters that need a credential. The
// Resolver skips them while the credential is absent.
type Credentialed interface {
	CredentialKey() CredentialKey
}

// CredentialKey names an entry in the credential store.
type CredentialKey string

const (
	KeyCommercialPlaces   CredentialKey = "commercial_places"
	KeyCommercialGeocoder CredentialKey = "commercial_geocoder"
)

// CredentialKeys lists every key the engine reads.
var CredentialKeys = []CredentialKey{KeyCommercialPlaces, KeyCommercialGeocoder}

// ParseCredentialKey validates a key name.
func ParseCredentialKey(s string) (CredentialKey, error) {
	for _, k := range CredentialKeys {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown credential key %q (want one of %v)", s, CredentialKeys)
}

// CredentialStore holds optional API keys. Get reports ok=false for an absent
// or empty key.
type CredentialStore interface {
	Get(ctx context.Context, key CredentialKey) (value string, ok bool, err error)
}

// CredentialNotifier is implemented by stores that can announce updates.
type CredentialNotifier interface {
	Subscribe(fn func(CredentialKey)) (cancel func())
}

// ProviderCredentials is a snapshot of every credential the engine uses.
type ProviderCredentials struct {
	CommercialPlacesKey     string
	CommercialGeocoderToken string
}

// Has reports whether the credential for key is present in the snapshot.
func (p ProviderCredentials) Has(key CredentialKey) bool {
	switch key {
	case KeyCommercialPlaces:
		return p.CommercialPlacesKey != ""
	case KeyCommercialGeocoder:
		return p.CommercialGeocoderToken != ""
	default:
		return false
	}
}

// LoadCredentials reads a snapshot from the store. A failing lookup counts
// as an absent credential and is returned alongside the partial snapshot.
func LoadCredentials(ctx context.Context, store CredentialStore) (ProviderCredentials, error) {
	var (
		creds    ProviderCredentials
		firstErr error
	)

	if store == nil {
		return creds, nil
	}

	for _, key := range CredentialKeys {
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("reading credential %s: %w", key, err)
			}

			continue
		}

		if !ok {
			continue
		}

		switch key {
		case KeyCommercialPlaces:
			creds.CommercialPlacesKey = v
		case KeyCommercialGeocoder:
			creds.CommercialGeocoderToken = v
		}
	}

	return creds, firstErr
}
