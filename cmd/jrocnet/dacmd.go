package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/config"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/da"
	"github.com/jrocnet/ledger/internal/daserver"
	"github.com/jrocnet/ledger/internal/identity"
	"github.com/jrocnet/ledger/internal/policy"
	"github.com/jrocnet/ledger/pkg/db/pebble"
	"github.com/jrocnet/ledger/pkg/log"
)

func newDACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "da",
		Short: "operate the data-availability companion",
	}
	cmd.AddCommand(newDAServeCmd(), newDASampleCmd())
	return cmd
}

func newDAServeCmd() *cobra.Command {
	var configPath, identityPath, passphraseEnv string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the DA HTTP surface (submit_blob, commitment, sample, prove_storage, rollup_settle)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			var operator ed25519.PublicKey
			if identityPath != "" {
				passphrase, err := resolvePassphrase(passphraseEnv)
				if err != nil {
					return err
				}
				pub, _, err := identity.Load(identityPath, passphrase)
				if err != nil {
					return err
				}
				operator = pub
			} else {
				pub, _, err := ed25519.GenerateKey(rand.Reader)
				if err != nil {
					return err
				}
				operator = pub
			}

			kv, err := pebble.NewKVStoreAt(cfg.DABaseDir)
			if err != nil {
				return fmt.Errorf("open DA store at %s: %w", cfg.DABaseDir, err)
			}
			defer kv.Close()

			store := da.NewStore(kv, cfg.AttestationQuorum)
			store.SetFrozen(cfg.Frozen())
			stake := policy.NewStake(0, nil)

			srv := daserver.New(store, stake, cfg, operator)
			r := gin.New()
			r.Use(gin.Recovery())
			srv.InstallAPI(r)

			log.HTTP.Info().Str("addr", cfg.HTTPAddr).Str("da_base_dir", cfg.DABaseDir).Msg("da serve listening")
			return r.Run(cfg.HTTPAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a NodeConfig JSON file (default built-in defaults)")
	cmd.Flags().StringVar(&identityPath, "identity", "", "encrypted identity file for the operator reward key")
	cmd.Flags().StringVar(&passphraseEnv, "passphrase-env", "", "environment variable holding the identity passphrase")
	return cmd
}

func newDASampleCmd() *cobra.Command {
	var addr, namespace, hash string
	var count int
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "request random sampling proofs from a running da serve instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/sample/%s/%s?count=%d", addr, namespace, hash, count)
			client := http.Client{Timeout: 30 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("sample request failed: %s: %s", resp.Status, body)
			}
			_, err = os.Stdout.Write(append(body, '\n'))
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "base URL of a running da serve instance")
	cmd.Flags().StringVar(&namespace, "namespace", "", "DA namespace (required)")
	cmd.Flags().StringVar(&hash, "hash", "", "hex-encoded blob hash (required)")
	cmd.Flags().IntVar(&count, "count", 1, "number of shares to sample")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}
