package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dimitrije/credvault/internal/models"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errNewPasswordRequired = errors.New("VAULT_NEW_PASSWORD must be set when VAULT_PASSWORD is")
	errSamePassword        = errors.New("new password must differ from the current one")
)

var (
	vaultUser string
	backupOut string
	backupIn  string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write an encrypted backup of a user's vault",
	Example: `  VAULT_PASSWORD=... vaultctl export --user 6f1c... --out vault.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, vaultUser, func(ctx context.Context, svc *services.VaultService, sess *services.Session, _ string) error {
			blob, err := svc.ExportBackup(ctx, sess)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(blob, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(backupOut, data, 0o600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" backup written to "+backupOut)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore credentials from an encrypted backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(backupIn)
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		var blob models.BackupBlob
		if err := json.Unmarshal(data, &blob); err != nil {
			return fmt.Errorf("%w: %v", services.ErrUnsupportedBackup, err)
		}

		return withVault(cmd, vaultUser, func(ctx context.Context, svc *services.VaultService, sess *services.Session, _ string) error {
			n, err := svc.ImportBackup(ctx, sess, &blob)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s imported %d credential(s)\n", color.GreenString("✓"), n)
			return nil
		})
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change a vault's master password",
	Long: `Passwd re-encrypts every credential under the new password. Either all
credentials move to the new password or none do.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, vaultUser, func(ctx context.Context, svc *services.VaultService, sess *services.Session, password string) error {
			newPassword, err := readNewPassword(password)
			if err != nil {
				return err
			}
			if err := svc.ChangeMasterPassword(ctx, sess, password, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" master password changed")
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show credential and usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, vaultUser, func(ctx context.Context, svc *services.VaultService, sess *services.Session, _ string) error {
			stats, err := svc.GetStats(ctx, sess)
			if err != nil {
				return err
			}
			printStats(cmd, stats)
			return nil
		})
	},
}

// readNewPassword reads VAULT_NEW_PASSWORD or prompts twice. In unattended
// mode (VAULT_PASSWORD set) the new password must come from the environment.
func readNewPassword(current string) (string, error) {
	pw, ok := os.LookupEnv("VAULT_NEW_PASSWORD")
	if !ok {
		if _, unattended := os.LookupEnv("VAULT_PASSWORD"); unattended {
			return "", errNewPasswordRequired
		}
		first, err := promptPassword("New password: ")
		if err != nil {
			return "", err
		}
		second, err := promptPassword("Repeat new password: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", fmt.Errorf("passwords do not match")
		}
		pw = first
	}
	if pw == current {
		return "", errSamePassword
	}
	return pw, nil
}

func printStats(cmd *cobra.Command, stats *models.VaultStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d total, %d active, %d uses\n",
		color.New(color.Bold).Sprint("keys:"), stats.TotalKeys, stats.ActiveKeys, stats.TotalUsage)

	ids := make([]string, 0, len(stats.ProviderBreakdown))
	for id := range stats.ProviderBreakdown {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := stats.ProviderBreakdown[providers.ID(id)]
		errs := fmt.Sprintf("%d errors", p.ErrorCount)
		if p.ErrorCount > 0 {
			errs = color.RedString(errs)
		}
		fmt.Fprintf(out, "  %-16s %2d keys %6d uses %8.1fms avg  %s\n",
			color.CyanString(id), p.Keys, p.Usage, p.AvgResponseMs, errs)
	}
	if stats.LastActivity != nil {
		fmt.Fprintf(out, "last activity: %s\n", stats.LastActivity.Format("2006-01-02 15:04:05"))
	}
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd, passwdCmd, statsCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&vaultUser, "user", "u", "", "Vault owner's user ID (required)")
		_ = c.MarkFlagRequired("user")
	}

	exportCmd.Flags().StringVarP(&backupOut, "out", "o", "vault-backup.json", "Backup file to write")
	importCmd.Flags().StringVarP(&backupIn, "in", "i", "", "Backup file to read (required)")
	_ = importCmd.MarkFlagRequired("in")
}
