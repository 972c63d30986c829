package main

import (
	"fmt"
	"strings"

	"github.com/dimitrije/credvault/internal/providers"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var providersCategory string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and their fields",
	Example: `  vaultctl providers
  vaultctl providers --category ai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := providers.Default()

		configs := registry.List()
		if providersCategory != "" {
			configs = registry.ListByCategory(providers.Category(providersCategory))
			if len(configs) == 0 {
				return fmt.Errorf("no providers in category %q", providersCategory)
			}
		}

		out := cmd.OutOrStdout()
		var current providers.Category
		for _, cfg := range configs {
			if cfg.Category != current {
				current = cfg.Category
				fmt.Fprintln(out, color.New(color.Bold).Sprint(string(current)))
			}
			keys := make([]string, 0, len(cfg.Fields))
			for _, f := range cfg.Fields {
				key := f.Key
				if f.Required {
					key += "*"
				}
				keys = append(keys, key)
			}
			fmt.Fprintf(out, "  %-16s %-20s %s\n",
				color.CyanString(string(cfg.Provider)), cfg.Name, strings.Join(keys, ", "))
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <provider> [key=value...]",
	Short: "Check field values against a provider's declaration",
	Example: `  vaultctl validate openai apiKey=sk-abc123`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := providers.Default()
		id, err := registry.Parse(args[0])
		if err != nil {
			return err
		}

		fields := make(map[string]string, len(args)-1)
		for _, kv := range args[1:] {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", kv)
			}
			fields[key] = value
		}

		errs, err := registry.Validate(id, fields)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(errs) == 0 {
			fmt.Fprintln(out, color.GreenString("✓")+" valid")
			return nil
		}
		for _, fe := range errs {
			fmt.Fprintf(out, "%s %s: %s\n", color.RedString("✗"), fe.Field, fe.Message)
		}
		return fmt.Errorf("%d field(s) invalid", len(errs))
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(validateCmd)

	providersCmd.Flags().StringVarP(&providersCategory, "category", "c", "", "Only list providers in this category")
}
