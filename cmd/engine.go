// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/rideloc/credentials"
	"github.com/jcodagnone/rideloc/gazetteer"
	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/providers"
)

const recentDiagnostics = 200

// engine is everything a command needs to resolve locations.
type engine struct {
	db          *sql.DB
	sqlStore    *credentials.SQLStore
	store       credentials.Store
	cache       *credentials.Cache
	diagnostics *location.RecordingSink
	resolver    *location.Resolver
	places      *providers.GooglePlaces
}

func openStore(ctx context.Context) (*sql.DB, *credentials.SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(options.DbPath), 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", options.DbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := credentials.NewSQLStore(ctx, db)
	if err != nil {
		db.Close()

		return nil, nil, err
	}

	return db, s, nil
}

func userAgent() string {
	if options.UserAgent != "" {
		return options.UserAgent
	}

	return fmt.Sprintf("rideloc/%s (+https://github.com/jcodagnone/rideloc)", Version)
}

func newEngine(ctx context.Context) (*engine, error) {
	db, sqlStore, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	store := credentials.NewEnvStore(sqlStore)
	cache := credentials.NewCache(store)

	var trace io.Writer
	if options.Trace || options.TraceBody {
		trace = os.Stderr
	}

	clientOpts := providers.ClientOptions{
		UserAgent: userAgent(),
		Trace:     trace,
		TraceBody: options.TraceBody,
	}
	client := providers.NewHTTPClient(clientOpts)

	places := providers.NewGooglePlaces(client, cache)
	diagnostics := location.NewRecordingSink(recentDiagnostics)

	resolver := location.NewResolver(cache,
		location.WithBuiltin(gazetteer.New(nil)),
		location.WithCommercialPlaces(places),
		location.WithCommercialGeocoder(providers.NewMapbox(client, cache)),
		location.WithCommunityGeocoder(providers.NewNominatim(clientOpts)),
		location.WithHomeRegion(options.HomeRegion),
		location.WithBranchTimeout(options.BranchTimeout),
		location.WithDiagnostics(location.MultiSink{
			location.LogSink{Verbose: options.Verbose},
			diagnostics,
		}),
	)

	return &engine{
		db:          db,
		sqlStore:    sqlStore,
		store:       store,
		cache:       cache,
		diagnostics: diagnostics,
		resolver:    resolver,
		places:      places,
	}, nil
}

func (e *engine) Close() error {
	e.cache.Close()

	return e.db.Close()
}
