package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/ledger"
	"github.com/jrocnet/ledger/internal/metrics"
	"github.com/jrocnet/ledger/internal/policy"
	"github.com/jrocnet/ledger/internal/quorum"
)

// submissionFile is one identity's reported ledger state, as read from
// a file previously written by `ledger push`/`ledger anchor`'s --store.
type submissionFile struct {
	IdentityHex string `json:"identity_hex"`
	StorePath   string `json:"store_path"`
}

func newReconcileCmd() *cobra.Command {
	var submissionsPath, authorizedCSV string
	var threshold int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "check quorum finality across a set of submitted ledger states",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(submissionsPath)
			if err != nil {
				return fmt.Errorf("read submissions file: %w", err)
			}
			var files []submissionFile
			if err := json.Unmarshal(raw, &files); err != nil {
				return fmt.Errorf("parse submissions file: %w", err)
			}

			var authorized []ed25519.PublicKey
			for _, s := range strings.Split(authorizedCSV, ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				pk, err := hex.DecodeString(s)
				if err != nil || len(pk) != ed25519.PublicKeySize {
					return fmt.Errorf("bad authorized key %q", s)
				}
				authorized = append(authorized, ed25519.PublicKey(pk))
			}
			authz := policy.NewStatic(authorized...)

			submissions := make([]quorum.Submission, 0, len(files))
			for _, f := range files {
				identity, err := hex.DecodeString(f.IdentityHex)
				if err != nil || len(identity) != ed25519.PublicKeySize {
					return fmt.Errorf("bad identity_hex %q in submission", f.IdentityHex)
				}
				entries, err := ledger.LoadEntries(f.StorePath)
				if err != nil {
					return fmt.Errorf("load submission store %s: %w", f.StorePath, err)
				}
				submissions = append(submissions, quorum.Submission{Identity: ed25519.PublicKey(identity), Entries: entries})
			}

			final, div := quorum.Final(submissions, authz, threshold)
			if final {
				metrics.FinalityEventsTotal.Inc()
			}
			out := struct {
				Final      bool               `json:"final"`
				Divergence *quorum.Divergence `json:"divergence,omitempty"`
			}{Final: final, Divergence: div}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().StringVar(&submissionsPath, "submissions", "", "path to a JSON array of {identity_hex, store_path} submissions (required)")
	cmd.Flags().StringVar(&authorizedCSV, "authorized", "", "comma-separated hex public keys authorized to contribute to quorum (required)")
	cmd.Flags().IntVar(&threshold, "threshold", 1, "distinct-identity threshold required for finality")
	_ = cmd.MarkFlagRequired("submissions")
	_ = cmd.MarkFlagRequired("authorized")
	return cmd
}
