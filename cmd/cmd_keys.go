// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/rideloc/credentials"
	"github.com/jcodagnone/rideloc/location"
	"github.com/spf13/cobra"
)

var keysOptions = struct {
	Project     string
	DisplayName string
}{}

func keyNames() string {
	names := make([]string, 0, len(location.CredentialKeys))
	for _, k := range location.CredentialKeys {
		names = append(names, string(k))
	}

	return strings.Join(names, ", ")
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider credentials",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials, masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := credentials.NewEnvStore(s).List(cmd.Context())
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Printf("No credentials configured. Known keys: %s\n", keyNames())

			return nil
		}

		for _, e := range entries {
			fmt.Printf("%-20s %-12s %-30s %s\n", e.Key, e.Masked, e.Origin, e.UpdatedAt.Format("2006-01-02 15:04"))
		}

		return nil
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a credential; the value is read from standard input when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := location.ParseCredentialKey(args[0])
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading value: %w", err)
			}

			value = line
		}

		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("empty value for %s; use 'keys unset' to remove it", key)
		}

		db, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := s.Set(cmd.Context(), key, value); err != nil {
			return err
		}

		log.Printf("Saved %s credential %s", key, credentials.Mask(strings.TrimSpace(value)))

		return nil
	},
}

var keysUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := location.ParseCredentialKey(args[0])
		if err != nil {
			return err
		}

		db, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := s.Delete(cmd.Context(), key); err != nil {
			return err
		}

		if name := credentials.EnvVars[key]; name != "" && os.Getenv(name) != "" {
			log.Printf("Removed stored %s, but %s is still set in the environment", key, name)
		}

		return nil
	},
}

var keysProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Fetch the Google Places key through Application Default Credentials",
	Long: `Looks up an API key by display name in a Google Cloud project, using
Application Default Credentials (gcloud auth application-default login), and
stores it as the commercial_places credential.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		return credentials.ProvisionFromADC(cmd.Context(), s, keysOptions.Project, keysOptions.DisplayName)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysUnsetCmd)
	keysCmd.AddCommand(keysProvisionCmd)
	keysProvisionCmd.Flags().StringVar(&keysOptions.Project, "project", "", "Google Cloud project, defaults to the one in the credentials")
	keysProvisionCmd.Flags().StringVar(
		&keysOptions.DisplayName,
		"display-name",
		credentials.DefaultKeyDisplayName,
		"Display name of the API key to fetch",
	)
}
