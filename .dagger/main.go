// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"dagger/rideloc/internal/dagger"
	"fmt"
	"log"
)

type Rideloc struct{}

// Runs the unit tests
func (r *Rideloc) Test(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
) (string, error) {
	return r.BuildCliBase(ctx, src, "").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// Runs the API server as a service, e.g.
// dagger call serve --places-key=env:GOOGLE_MAPS_API_KEY up --ports 8080:8080
func (r *Rideloc) Serve(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
	// +optional
	placesKey *dagger.Secret,
	// +optional
	mapboxToken *dagger.Secret,
) *dagger.Service {
	ctr := r.BuildCli(ctx, src)

	if placesKey != nil {
		ctr = ctr.WithSecretVariable("GOOGLE_MAPS_API_KEY", placesKey)
	}

	if mapboxToken != nil {
		ctr = ctr.WithSecretVariable("MAPBOX_ACCESS_TOKEN", mapboxToken)
	}

	return ctr.
		WithExposedPort(8080).
		AsService(dagger.ContainerAsServiceOpts{
			Args: []string{"/app/rideloc", "--db", "/tmp/rideloc.duckdb", "serve", "--listen", "0.0.0.0:8080"},
		})
}

// Builds, validates and publishes the CLI image
func (r *Rideloc) BuildAndPublish(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["build", "*.duckdb"]
	src *dagger.Directory,
	// Registry path, e.g. us-docker.pkg.dev/project/repo
	registry string,
	// +optional
	token *dagger.Secret,
) (string, error) {
	if _, err := r.BuildCliValidate(ctx, src).Sync(ctx); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	accessToken, err := extractToken(ctx, token)
	if err != nil {
		return "", err
	}

	ref, err := publish(ctx, dag.SetSecret("gcp-token", accessToken), r.BuildCli(ctx, src), registry, "rideloc")
	if err != nil {
		return "", fmt.Errorf("failed to publish cli: %w", err)
	}

	log.Printf("✅ Published %s", ref)

	return ref, nil
}
