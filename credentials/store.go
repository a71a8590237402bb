// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package credentials stores the optional provider API keys and announces
// changes so running resolvers pick them up without a restart.
package credentials

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jcodagnone/rideloc/location"
)

// ErrReadOnly is returned when writing to a store that cannot persist.
var ErrReadOnly = errors.New("credential store is read-only")

// Entry is a stored credential.
type Entry struct {
	Key       location.CredentialKey `json:"key"`
	Value     string                 `json:"-"`
	Masked    string                 `json:"value"`
	Origin    string                 `json:"origin"`
	UpdatedAt time.Time              `json:"updated_at,omitzero"`
}

// Store is a writable credential store.
type Store interface {
	location.CredentialStore
	location.CredentialNotifier
	Set(ctx context.Context, key location.CredentialKey, value string) error
	Delete(ctx context.Context, key location.CredentialKey) error
	List(ctx context.Context) ([]Entry, error)
}

// notifier keeps the subscriber list shared by every store.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(location.CredentialKey)
}

func (n *notifier) Subscribe(fn func(location.CredentialKey)) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = map[int]func(location.CredentialKey){}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.subs, id)
	}
}

func (n *notifier) notify(key location.CredentialKey) {
	n.mu.Lock()
	fns := make([]func(location.CredentialKey), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

func (n *notifier) notifyAll() {
	for _, key := range location.CredentialKeys {
		n.notify(key)
	}
}

// Mask hides all but the last four characters of a secret.
func Mask(v string) string {
	const dots = "••••"

	r := []rune(v)
	if len(r) <= 4 {
		return dots
	}

	return dots + string(r[len(r)-4:])
}
