package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/node"
)

func newGossipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gossip",
		Short: "process anchor envelopes the way a live gossip loop would",
	}
	cmd.AddCommand(newGossipVerifyCmd())
	return cmd
}

func newGossipVerifyCmd() *cobra.Command {
	var envelopePath, namespace string
	var dedupCapacity, maxPerMinute int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "run a received envelope file through duplicate suppression, rate limiting, and signature verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(envelopePath)
			if err != nil {
				return fmt.Errorf("read envelope file: %w", err)
			}

			receiver := node.NewReceiver(dedupCapacity, maxPerMinute)
			doc, err := receiver.Receive(namespace, raw, time.Now())
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().StringVar(&envelopePath, "envelope", "", "path to a jrocnet.envelope.v1 JSON file (required)")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "namespace this envelope is rate-limited under")
	cmd.Flags().IntVar(&dedupCapacity, "dedup-capacity", 4096, "duplicate-envelope LRU capacity")
	cmd.Flags().IntVar(&maxPerMinute, "max-per-minute", 60, "per-namespace submissions-per-minute cap")
	_ = cmd.MarkFlagRequired("envelope")
	return cmd
}
