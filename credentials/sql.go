// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jcodagnone/rideloc/location"
)

// SQLStore persists credentials in a DuckDB table.
type SQLStore struct {
	notifier

	db *sql.DB
}

// NewSQLStore wraps db and creates the schema when missing.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.CreateSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating credentials schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			key VARCHAR PRIMARY KEY,
			value VARCHAR NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (s *SQLStore) Get(ctx context.Context, key location.CredentialKey) (string, bool, error) {
	var value string

	err := s.db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("reading credential %s: %w", key, err)
	}

	return value, value != "", nil
}

// Set upserts value under key. An empty value deletes the key.
func (s *SQLStore) Set(ctx context.Context, key location.CredentialKey, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Delete(ctx, key)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, string(key), value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving credential %s: %w", key, err)
	}

	s.notify(key)

	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key location.CredentialKey) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", string(key))
	if err != nil {
		return fmt.Errorf("deleting credential %s: %w", key, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.notify(key)
	}

	return nil
}

// List returns the stored credentials in location.CredentialKeys order.
// Rows with keys the engine does not read are skipped.
func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value, updated_at FROM credentials")
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	byKey := map[location.CredentialKey]Entry{}

	for rows.Next() {
		var (
			e   Entry
			key string
		)
		if err := rows.Scan(&key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}

		e.Key = location.CredentialKey(key)
		e.Masked = Mask(e.Value)
		e.Origin = "db"
		byKey[e.Key] = e
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []Entry

	for _, key := range location.CredentialKeys {
		if e, ok := byKey[key]; ok {
			out = append(out, e)
		}
	}

	return out, nil
}

// Fingerprint summarizes the table contents; it changes on every write,
// including writes from other processes.
func (s *SQLStore) Fingerprint(ctx context.Context) (string, error) {
	var (
		count   int64
		latest  sql.NullTime
		digests sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT count(*), max(updated_at), string_agg(key || '=' || md5(value), ',' ORDER BY key)
		FROM credentials
	`).Scan(&count, &latest, &digests)
	if err != nil {
		return "", fmt.Errorf("fingerprinting credentials: %w", err)
	}

	return fmt.Sprintf("%d|%v|%s", count, latest.Time.UnixNano(), digests.String), nil
}

// Watch polls the table every interval and notifies subscribers of every key
// when it changes. It returns when ctx is done.
func (s *SQLStore) Watch(ctx context.Context, interval time.Duration) error {
	return Poll(ctx, interval, s.Fingerprint, s.notifyAll)
}
