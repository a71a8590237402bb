// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/jcodagnone/rideloc/location"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultKeyDisplayName is the API key looked up when none is given.
const DefaultKeyDisplayName = "rideloc Places Key"

// FindKeyFromADC returns the secret of the API key named displayName in the
// Google Cloud project of the Application Default Credentials. projectID
// overrides the project found in the credentials.
func FindKeyFromADC(ctx context.Context, projectID, displayName string) (string, error) {
	if displayName == "" {
		displayName = DefaultKeyDisplayName
	}

	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	// User credentials without a quota project carry no project.
	if projectID == "" {
		return "", errors.New("no project ID in default credentials; pass one explicitly")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret; GetKeyString returns it.
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but its key string is empty", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}

// ProvisionFromADC looks the places key up through ADC and saves it in store.
func ProvisionFromADC(ctx context.Context, store Store, projectID, displayName string) error {
	key, err := FindKeyFromADC(ctx, projectID, displayName)
	if err != nil {
		return err
	}

	if err := store.Set(ctx, location.KeyCommercialPlaces, key); err != nil {
		return fmt.Errorf("saving provisioned key: %w", err)
	}

	log.Printf("Saved %s credential %s", location.KeyCommercialPlaces, Mask(key))

	return nil
}
