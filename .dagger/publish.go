// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"dagger/rideloc/internal/dagger"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
)

func extractToken(ctx context.Context, token *dagger.Secret) (string, error) {
	if token != nil {
		accessToken, err := token.Plaintext(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get token plaintext: %w", err)
		}

		return accessToken, nil
	}

	// Application Default Credentials, as set up by Cloud Build or gcloud.
	credsObj, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("failed to find default credentials: %w", err)
	}

	t, err := credsObj.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token from ADC: %w", err)
	}

	return t.AccessToken, nil
}

// publishes a container to a private registry
func publish(
	ctx context.Context,
	token *dagger.Secret,
	container *dagger.Container,
	registry string,
	name string,
) (string, error) {
	addr, _, _ := strings.Cut(registry, "/")

	return container.
		WithRegistryAuth(addr, "oauth2accesstoken", token).
		// Format: region-docker.pkg.dev/project/repo/image:latest
		Publish(ctx, fmt.Sprintf("%s/%s:latest", strings.TrimSuffix(registry, "/"), name))
}
