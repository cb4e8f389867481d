package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/identity"
)

// resolvePassphrase reads a passphrase from the named environment
// variable when set, falling back to an interactive off-stdin prompt.
func resolvePassphrase(envVar string) (string, error) {
	if envVar != "" {
		if v, ok := os.LookupEnv(envVar); ok {
			return v, nil
		}
	}
	return identity.ReadPassphrase("passphrase: ")
}

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "manage this node's encrypted-at-rest signing identity",
	}
	cmd.AddCommand(newIdentityNewCmd())
	return cmd
}

func newIdentityNewCmd() *cobra.Command {
	var passphraseEnv string
	cmd := &cobra.Command{
		Use:   "new <path>",
		Short: "generate a new ed25519 identity, encrypted at rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := resolvePassphrase(passphraseEnv)
			if err != nil {
				return err
			}
			pub, err := identity.New(args[0], passphrase)
			if err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(pub))
			return nil
		},
	}
	cmd.Flags().StringVar(&passphraseEnv, "passphrase-env", "", "environment variable holding the passphrase, skipping the interactive prompt")
	return cmd
}
