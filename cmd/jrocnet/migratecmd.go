package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/migration"
	"github.com/jrocnet/ledger/internal/policy"
)

// registryRow is the CLI-facing input to `migrate snapshot`: one
// account's pre-migration balance and bonding state, keyed by hex
// public key rather than migration.RegistryEntry's base64 []byte form,
// since hex is what `identity new`/`keys sign` already print.
type registryRow struct {
	PublicKeyHex string `json:"public_key_hex"`
	Balance      uint64 `json:"balance"`
	Stake        uint64 `json:"stake"`
	Slashed      bool   `json:"slashed"`
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "wind a network down into a claim manifest on another chain",
	}
	cmd.AddCommand(newMigrateSnapshotCmd(), newMigrateClaimsCmd())
	return cmd
}

func newMigrateSnapshotCmd() *cobra.Command {
	var registryPath, outPath string
	var height uint64
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "build a sorted registry snapshot from a CLI registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(registryPath)
			if err != nil {
				return fmt.Errorf("read registry file: %w", err)
			}
			var rows []registryRow
			if err := json.Unmarshal(raw, &rows); err != nil {
				return fmt.Errorf("parse registry file: %w", err)
			}

			initial := make(map[[ed25519.PublicKeySize]byte]policy.StakeEntry, len(rows))
			keys := make([]ed25519.PublicKey, 0, len(rows))
			for _, row := range rows {
				pk, err := hex.DecodeString(row.PublicKeyHex)
				if err != nil || len(pk) != ed25519.PublicKeySize {
					return fmt.Errorf("bad public_key_hex %q in registry file", row.PublicKeyHex)
				}
				initial[[ed25519.PublicKeySize]byte(pk)] = policy.StakeEntry{Balance: row.Balance, Bonded: row.Stake, Slashed: row.Slashed}
				keys = append(keys, ed25519.PublicKey(pk))
			}

			stake := policy.NewStake(0, initial)
			snapshot := migration.BuildSnapshot(height, stake, keys)

			encoded, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err := os.Stdout.Write(append(encoded, '\n'))
				return err
			}
			return os.WriteFile(outPath, encoded, 0o644)
		},
	}
	cmd.Flags().StringVar(&registryPath, "registry", "", "path to the JSON registry rows file (required)")
	cmd.Flags().Uint64Var(&height, "height", 0, "snapshot height")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the snapshot (default stdout)")
	_ = cmd.MarkFlagRequired("registry")
	return cmd
}

func newMigrateClaimsCmd() *cobra.Command {
	var snapshotPath, outPath, mode string
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "build the claim Merkle tree over a registry snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(snapshotPath)
			if err != nil {
				return fmt.Errorf("read snapshot file: %w", err)
			}
			var snapshot migration.Snapshot
			if err := json.Unmarshal(raw, &snapshot); err != nil {
				return fmt.Errorf("parse snapshot file: %w", err)
			}

			amountMode, err := parseAmountMode(mode)
			if err != nil {
				return err
			}

			manifest, err := migration.BuildClaimTree(snapshot, amountMode, identityAddress)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(manifest, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err := os.Stdout.Write(append(encoded, '\n'))
				return err
			}
			return os.WriteFile(outPath, encoded, 0o644)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to a migration snapshot JSON file (required)")
	cmd.Flags().StringVar(&mode, "mode", "total", "amount mode: total, balance, or stake")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the claim manifest (default stdout)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

// identityAddress derives a claim-chain address directly from the
// jrocnet public key, with no separate address scheme. A real
// deployment targeting a specific claim chain would override this with
// that chain's address derivation.
func identityAddress(pk ed25519.PublicKey) []byte {
	return append([]byte(nil), pk...)
}

func parseAmountMode(s string) (migration.AmountMode, error) {
	switch s {
	case "total", "":
		return migration.AmountTotal, nil
	case "balance":
		return migration.AmountBalance, nil
	case "stake":
		return migration.AmountStake, nil
	default:
		return 0, fmt.Errorf("unknown amount mode %q", s)
	}
}
