package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/ledger"
	"github.com/jrocnet/ledger/internal/transcript"
)

// ledgerEntriesOrGenesis loads a previously saved entry sequence from
// path, or the fixed genesis-only sequence when no file exists yet.
func ledgerEntriesOrGenesis(path string) ([]ledger.Entry, error) {
	entries, err := ledger.LoadEntries(path)
	if err != nil {
		if os.IsNotExist(err) {
			l := ledger.New()
			defer l.Close()
			return l.Snapshot(), nil
		}
		return nil, fmt.Errorf("load ledger store %s: %w", path, err)
	}
	return entries, nil
}

// openLedger loads a previously saved entry sequence from path, or
// starts a fresh genesis-seeded ledger when no file exists yet.
func openLedger(path string) (*ledger.Ledger, error) {
	entries, err := ledgerEntriesOrGenesis(path)
	if err != nil {
		return nil, err
	}
	return ledger.Restore(entries), nil
}

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "operate on the append-only statement+digest ledger",
	}
	cmd.AddCommand(newLedgerPushCmd(), newLedgerAnchorCmd(), newLedgerValidateCmd())
	return cmd
}

// digestFromInputs resolves the 32-byte digest and statement to push,
// either directly from --digest/--statement or by parsing a canonical
// transcript record from --transcript (whose own grammar check rejects
// a stored digest that doesn't match its recomputed one).
func digestFromInputs(transcriptPath, statement, digestHex string) (string, [32]byte, error) {
	if transcriptPath != "" {
		raw, err := os.ReadFile(transcriptPath)
		if err != nil {
			return "", [32]byte{}, fmt.Errorf("read transcript file: %w", err)
		}
		r, err := transcript.Parse(raw)
		if err != nil {
			return "", [32]byte{}, fmt.Errorf("parse transcript file: %w", err)
		}
		stmt := statement
		if stmt == "" {
			stmt = r.Statement
		}
		return stmt, r.Digest, nil
	}

	if statement == "" {
		return "", [32]byte{}, fmt.Errorf("--statement is required without --transcript")
	}
	raw, err := hex.DecodeString(digestHex)
	if err != nil || len(raw) != 32 {
		return "", [32]byte{}, fmt.Errorf("--digest must be 32 bytes of hex")
	}
	var digest [32]byte
	copy(digest[:], raw)
	return statement, digest, nil
}

func newLedgerPushCmd() *cobra.Command {
	var storePath, statement, digestHex, transcriptPath string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "append a transcript digest under a statement, either given directly or parsed from a canonical transcript file",
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, digest, err := digestFromInputs(transcriptPath, statement, digestHex)
			if err != nil {
				return err
			}

			l, err := openLedger(storePath)
			if err != nil {
				return err
			}
			defer l.Close()

			if err := l.Push(stmt, digest); err != nil {
				return err
			}
			return ledger.SaveEntries(storePath, l.Snapshot())
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "path to the ledger's saved entry file (required)")
	cmd.Flags().StringVar(&statement, "statement", "", "statement to append under (defaults to the transcript's own statement line when --transcript is given)")
	cmd.Flags().StringVar(&digestHex, "digest", "", "hex-encoded 32-byte transcript digest (ignored when --transcript is given)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "path to a canonical transcript record file; its digest line is verified and pushed directly")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func newLedgerAnchorCmd() *cobra.Command {
	var storePath, network, nodeID, challengeMode, crateVersion, outPath, signersCSV string
	var quorumThreshold int
	var final bool
	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "render the ledger's current entries into a signable jrocnet.anchor.v1 document",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLedger(storePath)
			if err != nil {
				return err
			}
			defer l.Close()

			var signers []string
			if signersCSV != "" {
				for _, s := range strings.Split(signersCSV, ",") {
					pk, err := hex.DecodeString(strings.TrimSpace(s))
					if err != nil || len(pk) != ed25519.PublicKeySize {
						return fmt.Errorf("bad signer %q in --signers", s)
					}
					signers = append(signers, strings.TrimSpace(s))
				}
			}

			doc := ledger.BuildAnchor(l.Snapshot(), network, nodeID, challengeMode, crateVersion,
				ledger.QuorumInfo{Threshold: quorumThreshold, Signers: signers, Final: final},
				time.Now().UnixMilli())

			encoded, err := doc.MarshalCanonical()
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
	cmd.Flags().StringVar(&storePath, "store", "", "path to the ledger's saved entry file (required)")
	cmd.Flags().StringVar(&network, "network", "jrocnet-mainnet", "network_id field of the anchor")
	cmd.Flags().StringVar(&nodeID, "node-id", "node-1", "node_id field of the anchor")
	cmd.Flags().StringVar(&challengeMode, "challenge-mode", "rejection", "challenge_mode field of the anchor")
	cmd.Flags().StringVar(&crateVersion, "crate-version", "0.1.0", "crate_version field of the anchor")
	cmd.Flags().StringVar(&signersCSV, "signers", "", "comma-separated hex public keys that reached finality")
	cmd.Flags().IntVar(&quorumThreshold, "quorum-threshold", 1, "quorum threshold this anchor was produced under")
	cmd.Flags().BoolVar(&final, "final", false, "whether this anchor's quorum is known final")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the anchor document (default stdout)")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}
