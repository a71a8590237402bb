// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jcodagnone/rideloc/location"
)

type memoryEntry struct {
	value     string
	updatedAt time.Time
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	notifier

	mu   sync.RWMutex
	data map[location.CredentialKey]memoryEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[location.CredentialKey]memoryEntry{}}
}

func (s *MemoryStore) Get(_ context.Context, key location.CredentialKey) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]

	return e.value, ok && e.value != "", nil
}

// Set stores value under key. An empty value deletes the key.
func (s *MemoryStore) Set(ctx context.Context, key location.CredentialKey, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Delete(ctx, key)
	}

	s.mu.Lock()
	s.data[key] = memoryEntry{value: value, updatedAt: time.Now()}
	s.mu.Unlock()

	s.notify(key)

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key location.CredentialKey) error {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()

	if existed {
		s.notify(key)
	}

	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry

	for _, key := range location.CredentialKeys {
		if e, ok := s.data[key]; ok {
			out = append(out, Entry{Key: key, Value: e.value, Masked: Mask(e.value), Origin: "memory", UpdatedAt: e.updatedAt})
		}
	}

	return out, nil
}
