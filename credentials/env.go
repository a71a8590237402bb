// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"os"
	"strings"

	"github.com/jcodagnone/rideloc/location"
)

// EnvVars maps each credential to the environment variable that overrides it.
var EnvVars = map[location.CredentialKey]string{
	location.KeyCommercialPlaces:   "GOOGLE_MAPS_API_KEY",
	location.KeyCommercialGeocoder: "MAPBOX_ACCESS_TOKEN",
}

// EnvStore reads credentials from the environment first and falls back to Base.
// Writes go to Base.
type EnvStore struct {
	Base   Store
	Lookup func(string) (string, bool)
}

// NewEnvStore overlays the process environment on base.
func NewEnvStore(base Store) *EnvStore {
	return &EnvStore{Base: base, Lookup: os.LookupEnv}
}

func (s *EnvStore) env(key location.CredentialKey) (string, bool) {
	name, ok := EnvVars[key]
	if !ok || s.Lookup == nil {
		return "", false
	}

	v, ok := s.Lookup(name)
	v = strings.TrimSpace(v)

	return v, ok && v != ""
}

func (s *EnvStore) Get(ctx context.Context, key location.CredentialKey) (string, bool, error) {
	if v, ok := s.env(key); ok {
		return v, true, nil
	}

	if s.Base == nil {
		return "", false, nil
	}

	return s.Base.Get(ctx, key)
}

func (s *EnvStore) Set(ctx context.Context, key location.CredentialKey, value string) error {
	if s.Base == nil {
		return ErrReadOnly
	}

	return s.Base.Set(ctx, key, value)
}

func (s *EnvStore) Delete(ctx context.Context, key location.CredentialKey) error {
	if s.Base == nil {
		return ErrReadOnly
	}

	return s.Base.Delete(ctx, key)
}

// List reports the effective credentials; environment values shadow stored ones.
func (s *EnvStore) List(ctx context.Context) ([]Entry, error) {
	var stored []Entry

	if s.Base != nil {
		var err error
		if stored, err = s.Base.List(ctx); err != nil {
			return nil, err
		}
	}

	byKey := map[location.CredentialKey]Entry{}
	for _, e := range stored {
		byKey[e.Key] = e
	}

	var out []Entry

	for _, key := range location.CredentialKeys {
		if v, ok := s.env(key); ok {
			out = append(out, Entry{Key: key, Value: v, Masked: Mask(v), Origin: "env:" + EnvVars[key]})

			continue
		}

		if e, ok := byKey[key]; ok {
			out = append(out, e)
		}
	}

	return out, nil
}

func (s *EnvStore) Subscribe(fn func(location.CredentialKey)) (cancel func()) {
	if s.Base == nil {
		return func() {}
	}

	return s.Base.Subscribe(fn)
}
