package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/identity"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "sign arbitrary data with a stored identity",
	}
	cmd.AddCommand(newKeysSignCmd())
	return cmd
}

func newKeysSignCmd() *cobra.Command {
	var identityPath, dataHex, passphraseEnv string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "sign hex-encoded data with an encrypted identity file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(dataHex)
			if err != nil {
				return fmt.Errorf("--data must be hex-encoded")
			}
			passphrase, err := resolvePassphrase(passphraseEnv)
			if err != nil {
				return err
			}
			_, priv, err := identity.Load(identityPath, passphrase)
			if err != nil {
				return err
			}
			sig := ed25519.Sign(priv, data)
			fmt.Println(hex.EncodeToString(sig))
			return nil
		},
	}
	cmd.Flags().StringVar(&identityPath, "identity", "", "path to the encrypted identity file (required)")
	cmd.Flags().StringVar(&dataHex, "data", "", "hex-encoded data to sign (required)")
	cmd.Flags().StringVar(&passphraseEnv, "passphrase-env", "", "environment variable holding the passphrase, skipping the interactive prompt")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
