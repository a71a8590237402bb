// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"log"
	"time"
)

// Poll calls fingerprint every interval and onChange whenever the value
// differs from the previous one. Fingerprint errors are logged and skipped.
// It returns ctx.Err() when ctx is done.
func Poll(ctx context.Context, interval time.Duration, fingerprint func(context.Context) (string, error), onChange func()) error {
	last, err := fingerprint(ctx)
	if err != nil {
		log.Printf("credentials: initial fingerprint: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current, err := fingerprint(ctx)
			if err != nil {
				log.Printf("credentials: fingerprint: %v", err)

				continue
			}

			if current != last {
				last = current

				onChange()
			}
		}
	}
}
