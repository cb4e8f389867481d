package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/da"
	"github.com/jrocnet/ledger/internal/quorum"
	"github.com/jrocnet/ledger/internal/transcript"
	"github.com/jrocnet/ledger/pkg/db/pebble"
)

// loadTranscriptSource parses every canonical transcript record file
// directly under dir, per internal/transcript's grammar (Parse itself
// rejects a stored hash line that doesn't match its recomputed digest),
// and treats the set of digests that parsed cleanly as reproducible. A
// real node would hold these in its own transcript store rather than a
// directory of files, but the predicate is the same either way.
func loadTranscriptSource(dir string) (quorum.TranscriptSource, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("list transcripts directory: %w", err)
	}
	known := make(map[[32]byte]struct{}, len(matches))
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read transcript file %s: %w", path, err)
		}
		r, err := transcript.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse transcript file %s: %w", path, err)
		}
		known[r.Digest] = struct{}{}
	}
	return func(digest [32]byte) (bool, error) {
		_, ok := known[digest]
		return ok, nil
	}, nil
}

func newLedgerValidateCmd() *cobra.Command {
	var storePath, transcriptsPath, daBaseDir string
	var attestationQuorum int
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check a saved ledger store against the validity predicate, optionally gating on DA quorum certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ledgerEntriesOrGenesis(storePath)
			if err != nil {
				return err
			}

			source, err := loadTranscriptSource(transcriptsPath)
			if err != nil {
				return err
			}

			var daSource quorum.DAQuorumSource
			if daBaseDir != "" {
				kv, err := pebble.NewKVStoreAt(daBaseDir)
				if err != nil {
					return fmt.Errorf("open DA store at %s: %w", daBaseDir, err)
				}
				defer kv.Close()
				store := da.NewStore(kv, attestationQuorum)
				daSource = store.HasQC
			}

			if err := quorum.ValidWithDA(entries, source, daSource); err != nil {
				return err
			}
			fmt.Println("anchor-valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "path to the ledger's saved entry file (required)")
	cmd.Flags().StringVar(&transcriptsPath, "transcripts", "", "directory of canonical transcript record files considered reproducible (required)")
	cmd.Flags().StringVar(&daBaseDir, "da-base-dir", "", "pebble directory of a DA store, to gate on attestation quorum certificates (optional)")
	cmd.Flags().IntVar(&attestationQuorum, "attestation-quorum", 1, "attestation quorum the DA store at --da-base-dir was opened with")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("transcripts")
	return cmd
}
