// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/jcodagnone/rideloc/location"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var typeOptions = struct {
	Quiet bool
}{}

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Interactive search: each line typed is a new query, an empty line submits",
	Long: `Reads queries from standard input one line at a time, the way a search box
receives keystrokes. Lookups start once input has been quiet for 300ms; a line
arriving earlier supersedes the pending one. An empty line submits the last
query right away. At end of input the last query is submitted and its results
printed before exiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		origin, err := nearFlag()
		if err != nil {
			return err
		}

		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		applied := make(chan struct{}, 1)

		var latest atomic.Uint64

		seq := location.NewSequencer(location.ResolverFunc(e.resolver), func(r location.Result) {
			fmt.Printf("\n[%d] %q\n", r.Query.Generation, r.Query.Text)
			if err := printCandidates(os.Stdout, r.Candidates); err != nil {
				log.Printf("Printing results: %v", err)
			}

			if interactive {
				fmt.Print("> ")
			}

			latest.Store(r.Query.Generation)

			select {
			case applied <- struct{}{}:
			default:
			}
		})
		defer seq.Close()

		if interactive {
			fmt.Print("> ")
		}

		var last string

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				seq.Submit(last, origin)

				continue
			}

			last = line
			seq.OnQueryChanged(line, origin)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if last == "" {
			return nil
		}

		gen := seq.Submit(last, origin)

		for {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-applied:
				if latest.Load() >= gen {
					if !typeOptions.Quiet {
						stats := seq.Stats()
						log.Printf("%d queries, %d applied, %d superseded, %d discarded",
							stats.Generation, stats.Applied, stats.Superseded, stats.Discarded)
					}

					return nil
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().StringVar(&outputOptions.Near, "near", "", "Bias results around <lat,lng>")
	typeCmd.Flags().BoolVarP(&typeOptions.Quiet, "quiet", "q", false, "Do not log session statistics at exit")
}
