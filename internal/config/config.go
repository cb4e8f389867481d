// Package config implements NodeConfig, the configuration surface a
// deployment of this kernel needs. Loading itself is a thin collaborator
// per spec.md 1; the resulting fields drive every mutating operation's
// semantics, per SPEC_FULL.md 4.N. Grounded on the teacher's
// FullValidatorInfo JSON-file pattern in cmd/strawberry/main.go, widened
// from a per-validator record to a whole-node config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// NodeConfig is the full configuration surface of one jrocnet node.
type NodeConfig struct {
	NetworkID   string `json:"network_id"`
	NodeID      string `json:"node_id"`
	Quorum      int    `json:"quorum"`
	Policy      string `json:"policy"` // "static" | "multisig" | "stake"
	LogDir      string `json:"log_dir"`
	DABaseDir   string `json:"da_base_dir"`
	HTTPAddr    string `json:"http_addr"`
	BearerToken string `json:"bearer_token,omitempty"`

	MaxBlobBytes       int64 `json:"max_blob_bytes"`
	BlobMaxConcurrency int   `json:"blob_max_concurrency"`

	AttestationQuorum int    `json:"attestation_quorum"`
	OperatorRewardBps uint64 `json:"operator_reward_bps"`
	MigrationMode     string `json:"migration_mode"` // "" | "freeze"
}

// Default returns the configuration a single node uses when none is
// supplied, matching the caps of spec.md 5.
func Default() NodeConfig {
	return NodeConfig{
		NetworkID:          "jrocnet-mainnet",
		NodeID:             "node-1",
		Quorum:             1,
		Policy:             "static",
		LogDir:             "./ledger-logs",
		DABaseDir:          "./da-data",
		HTTPAddr:           ":8080",
		MaxBlobBytes:       16 << 20,
		BlobMaxConcurrency: 128,
		AttestationQuorum:  1,
		OperatorRewardBps:  0,
	}
}

// Frozen reports whether migration_mode blocks mutating calls, per
// spec.md 4.J's ingress freeze.
func (c NodeConfig) Frozen() bool {
	return c.MigrationMode == "freeze"
}

// Load reads a NodeConfig from a JSON file at path, starting from
// Default() so an omitted field keeps its default rather than zeroing
// out.
func Load(path string) (NodeConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg NodeConfig) error {
	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
