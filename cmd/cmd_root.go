// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jcodagnone/rideloc/location"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "rideloc",
	Short: "location search for pickup and drop-off points",
	Long: `
rideloc resolves free text and coordinates into pickup and drop-off candidates,
fanning out to a builtin gazetteer, Google Places, Mapbox and Nominatim and
merging what they return into a single ranked list.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// Options are the flags shared by every command.
type Options struct {
	DbPath        string
	HomeRegion    string
	BranchTimeout time.Duration
	UserAgent     string
	Trace         bool
	TraceBody     bool
	Verbose       bool
}

var options = &Options{}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}

	return fallback
}

func defaultDbPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rideloc.duckdb"
	}

	return filepath.Join(home, ".rideloc", "rideloc.duckdb")
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(
		&options.DbPath,
		"db",
		envOr("RIDELOC_DB", defaultDbPath()),
		"DuckDB file holding provider credentials (env RIDELOC_DB)",
	)
	flags.StringVar(
		&options.HomeRegion,
		"home-region",
		envOr("RIDELOC_HOME_REGION", "PK"),
		"Country tag ranked ahead of the rest (env RIDELOC_HOME_REGION)",
	)
	flags.DurationVar(
		&options.BranchTimeout,
		"branch-timeout",
		location.DefaultBranchTimeout,
		"Time limit for each provider call",
	)
	flags.StringVar(
		&options.UserAgent,
		"user-agent",
		os.Getenv("RIDELOC_USER_AGENT"),
		"User-Agent sent to providers, defaults to rideloc/<version> (env RIDELOC_USER_AGENT)",
	)
	flags.BoolVar(&options.Trace, "http-trace", false, "Log provider requests and responses to stderr")
	flags.BoolVar(&options.TraceBody, "http-trace-body", false, "Include bodies in the HTTP trace")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "Also log providers that are unconfigured or empty")
}
