// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/spatial"
	"github.com/spf13/cobra"
)

var outputOptions = struct {
	JSON     bool
	Near     string
	Category []string
}{}

// coordinateArgs accepts either "lat,lng" or "lat lng".
func coordinateArgs(args []string) (spatial.Coordinate, error) {
	switch len(args) {
	case 1:
		return spatial.ParsePair(args[0])
	case 2:
		return spatial.Parse(args[0], args[1])
	default:
		return spatial.Coordinate{}, fmt.Errorf("expected <lat,lng> or <lat> <lng>, got %d arguments", len(args))
	}
}

func nearFlag() (*spatial.Coordinate, error) {
	if outputOptions.Near == "" {
		return nil, nil
	}

	c, err := spatial.ParsePair(outputOptions.Near)
	if err != nil {
		return nil, fmt.Errorf("--near: %w", err)
	}

	return &c, nil
}

func printCandidates(w io.Writer, cands []location.Candidate) error {
	if outputOptions.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(cands)
	}

	if len(cands) == 0 {
		fmt.Fprintln(w, "No results")

		return nil
	}

	a, b, c := strings.Repeat("─", 2), strings.Repeat("─", 30), strings.Repeat("─", 20)
	fmt.Fprintf(w, "╭─%2s─┬─%-30s─┬─%-20s─┬─%-12s─┬─%-19s─╮\n", a, b, c, strings.Repeat("─", 12), strings.Repeat("─", 19))
	fmt.Fprintf(w, "│ %2s │ %-30s │ %-20s │ %-12s │ %-19s │\n", "#", "Name", "Coordinate", "Category", "Source")
	fmt.Fprintf(w, "├─%2s─┼─%-30s─┼─%-20s─┼─%-12s─┼─%-19s─┤\n", a, b, c, strings.Repeat("─", 12), strings.Repeat("─", 19))

	for i, cand := range cands {
		fmt.Fprintf(w, "│ %2d │ %-30.30s │ %-20s │ %-12s │ %-19s │\n", i+1, cand.Name, cand.Coordinate, cand.Category, cand.Source)
	}

	fmt.Fprintf(w, "╰─%2s─┴─%-30s─┴─%-20s─┴─%-12s─┴─%-19s─╯\n", a, b, c, strings.Repeat("─", 12), strings.Repeat("─", 19))

	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search every configured provider for a place",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, err := nearFlag()
		if err != nil {
			return err
		}

		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		cands := e.resolver.Resolve(cmd.Context(), strings.Join(args, " "), origin)
		if options.Verbose {
			if status := e.places.LastStatus(); status != "" {
				log.Printf("Last Google Places status: %s", status)
			}
		}

		return printCandidates(os.Stdout, cands)
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat,lng>",
	Short: "Describe a coordinate",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coordinateArgs(args)
		if err != nil {
			return err
		}

		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		return printCandidates(os.Stdout, []location.Candidate{e.resolver.ReverseGeocode(cmd.Context(), c)})
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby <lat,lng>",
	Short: "List points of interest around a coordinate",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coordinateArgs(args)
		if err != nil {
			return err
		}

		var filter []location.Category
		for _, name := range outputOptions.Category {
			filter = append(filter, location.ParseCategory(strings.TrimSpace(name)))
		}

		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		return printCandidates(os.Stdout, e.resolver.Nearby(cmd.Context(), c, filter))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reverseCmd)
	rootCmd.AddCommand(nearbyCmd)

	for _, c := range []*cobra.Command{searchCmd, reverseCmd, nearbyCmd} {
		c.Flags().BoolVar(&outputOptions.JSON, "json", false, "Print candidates as JSON")
	}

	searchCmd.Flags().StringVar(&outputOptions.Near, "near", "", "Bias results around <lat,lng>")
	nearbyCmd.Flags().StringSliceVar(&outputOptions.Category, "category", nil, "Only these categories (medical, bank, ...)")
}
