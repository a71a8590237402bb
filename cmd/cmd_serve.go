// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/server"
	"github.com/spf13/cobra"
)

var serveOptions = struct {
	Listen       string
	SessionIdle  time.Duration
	PollInterval time.Duration
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		sessions := server.NewSessions(location.ResolverFunc(e.resolver), serveOptions.SessionIdle)
		defer sessions.Close()

		go sessions.Run(ctx, time.Minute)

		// Picks up rows written to the credentials table behind the store.
		go func() {
			if err := e.sqlStore.Watch(ctx, serveOptions.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Credential watch stopped: %v", err)
			}
		}()

		srv := &http.Server{
			Addr:              serveOptions.Listen,
			Handler:           server.NewServer(e.resolver, e.store, e.diagnostics, sessions).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Shutting down: %v", err)
			}
		}()

		fmt.Printf("📍 Location API listening on http://%s\n", serveOptions.Listen)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Listen, "listen", "localhost:8080", "Address to listen on")
	serveCmd.Flags().DurationVar(&serveOptions.SessionIdle, "session-idle", server.DefaultSessionIdle, "Close typing sessions idle this long")
	serveCmd.Flags().DurationVar(&serveOptions.PollInterval, "credential-poll", 5*time.Second, "How often to look for credential changes made by other processes")
}
