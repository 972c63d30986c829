package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/dimitrije/credvault/internal/config"
	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/logging"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:           "vaultctl",
	Short:         "Operator tool for the credential vault",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

// vaultFunc runs against an unlocked vault; the keyring is locked afterwards.
type vaultFunc func(ctx context.Context, svc *services.VaultService, sess *services.Session, password string) error

func withVault(cmd *cobra.Command, userFlag string, run vaultFunc) error {
	userID, err := uuid.Parse(userFlag)
	if err != nil {
		return fmt.Errorf("invalid user id %q", userFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	logger := logging.New(cfg.LogLevel, "console", os.Stderr)
	svc := services.NewVaultService(store.NewPostgresStore(db), providers.Default(), crypto.NewEngine(cfg.Vault.KDFIterations), nil, logger)

	password, err := readPassword("Master password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	return openVault(ctx, svc, userID, password, run)
}

// openVault never creates a vault: an unknown user fails like a wrong password.
func openVault(ctx context.Context, svc *services.VaultService, userID uuid.UUID, password string, run vaultFunc) error {
	keyring := services.NewKeyring(svc)
	defer keyring.Lock()

	if _, err := keyring.Unlock(ctx, userID, password); err != nil {
		return err
	}
	sess, err := keyring.Session(userID)
	if err != nil {
		return err
	}
	return run(ctx, svc, sess, password)
}

// readPassword prefers VAULT_PASSWORD so the tool can run unattended.
func readPassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv("VAULT_PASSWORD"); ok {
		return pw, nil
	}
	return promptPassword(prompt)
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
