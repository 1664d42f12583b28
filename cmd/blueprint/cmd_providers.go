package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hpn/hpn-blueprint/internal/generator"
)

func init() {
	rootCmd.AddCommand(providersCmd)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and configured server keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		gen := generator.New(
			generator.WithProviders(cfg.ProviderList()),
			generator.WithKeyRing(cfg.KeyRing()),
		)
		return printProviders(cmd.OutOrStdout(), gen.Providers())
	},
}

func printProviders(out io.Writer, providers []generator.ProviderStatus) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tDEFAULT MODEL\tBASE URL\tKEY\tSERVER KEYS\tENABLED")
	for _, p := range providers {
		key := "required"
		if !p.RequiresAPIKey {
			key = "none"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n", p.Type, p.DefaultModel, p.BaseURL, key, p.ServerKeys, p.Enabled)
	}
	return tw.Flush()
}
