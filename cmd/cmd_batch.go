// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchOptions = struct {
	Concurrency int
	Output      string
}{}

// batchLine is one line of batch output.
type batchLine struct {
	Input   string               `json:"input"`
	Reverse bool                 `json:"reverse,omitempty"`
	Results []location.Candidate `json:"results"`
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Resolve many queries at once, one per line, writing JSON lines",
	Long: `Reads one input per line from file (or standard input). Lines that parse as
"lat,lng" are reverse geocoded; everything else is searched. Output keeps the
input order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			in = f
		}

		lines, err := readLines(in)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		out := io.Writer(os.Stdout)
		if batchOptions.Output != "" && batchOptions.Output != "-" {
			f, err := os.Create(batchOptions.Output)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()

			out = f
		}

		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(lines),
				progressbar.OptionSetDescription("Resolving"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		results := make([]batchLine, len(lines))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, batchOptions.Concurrency))

		for i, line := range lines {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				if c, err := spatial.ParsePair(line); err == nil {
					results[i] = batchLine{Input: line, Reverse: true, Results: []location.Candidate{e.resolver.ReverseGeocode(ctx, c)}}
				} else {
					results[i] = batchLine{Input: line, Results: e.resolver.Resolve(ctx, line, nil)}
				}

				if bar != nil {
					_ = bar.Add(1)
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		enc := json.NewEncoder(out)

		var empty int

		for _, r := range results {
			if len(r.Results) == 0 {
				empty++
			}

			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}

		log.Printf("Resolved %d inputs, %d without results", len(results), empty)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVarP(&batchOptions.Concurrency, "concurrency", "j", 4, "Inputs resolved in parallel")
	batchCmd.Flags().StringVarP(&batchOptions.Output, "output", "o", "", "Write JSON lines here instead of standard output")
}
