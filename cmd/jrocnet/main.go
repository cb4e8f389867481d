// Command jrocnet drives every operation of the ledger kernel from one
// cobra-based CLI, replacing the teacher's single flag-parsed main.go.
// Each subcommand is a thin binding of flags onto an internal package's
// exported operation; parsing itself stays a collaborator, per spec.md
// 1, while the operations it drives are the real surface under test.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/pkg/log"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jrocnet",
		Short: "jrocnet drives the sum-check ledger and DA companion node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLogLevel(logLevel)
			if err != nil {
				return fmt.Errorf("bad --log-level: %w", err)
			}
			log.Init(log.Options{LogLevel: lvl, Type: log.ConsoleLogger})
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", zerolog.InfoLevel.String(), "log level (debug, info, warn, error)")

	root.AddCommand(
		newProveCmd(),
		newVerifyCmd(),
		newLedgerCmd(),
		newReconcileCmd(),
		newDACmd(),
		newMigrateCmd(),
		newIdentityCmd(),
		newKeysCmd(),
		newGossipCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
