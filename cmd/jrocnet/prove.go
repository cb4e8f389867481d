package main

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrocnet/ledger/internal/challenge"
	"github.com/jrocnet/ledger/internal/field"
	"github.com/jrocnet/ledger/internal/streampoly"
	"github.com/jrocnet/ledger/internal/sumcheck"
	"github.com/jrocnet/ledger/internal/transcript"
)

// polyFile is the on-disk form of a dense multilinear polynomial: one
// evaluation per boolean point, length a power of two, over a fixed
// prime field.
type polyFile struct {
	Prime  uint64   `json:"prime"`
	Values []uint64 `json:"values"`
}

func loadPoly(path string) (*streampoly.DenseTable, uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read poly file: %w", err)
	}
	var pf polyFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, 0, fmt.Errorf("parse poly file: %w", err)
	}
	n := len(pf.Values)
	if n == 0 || n&(n-1) != 0 {
		return nil, 0, fmt.Errorf("poly file: %d values is not a positive power of two", n)
	}
	dim := bits.Len(uint(n)) - 1
	fes := make([]field.FE, n)
	for i, v := range pf.Values {
		fes[i] = field.New(v%pf.Prime, pf.Prime)
	}
	return streampoly.NewDenseTable(dim, fes), pf.Prime, nil
}

func sumOf(poly *streampoly.DenseTable, p uint64) uint64 {
	total := field.New(0, p)
	n := uint64(1) << uint(poly.Dim())
	for i := uint64(0); i < n; i++ {
		total = total.Add(poly.EvalAt(i))
	}
	return total.Uint64()
}

// transcriptRecord renders a completed sum-check proof into the
// canonical ASCII transcript grammar, carrying the Fiat-Shamir mode
// Verify needs back as a "challenge_mode: ..." metadata line, the same
// convention ledger anchor's --challenge-mode already names.
func transcriptRecord(statement string, proof sumcheck.Proof) transcript.Record {
	return transcript.Record{
		Statement:  statement,
		Metadata:   []string{fmt.Sprintf("challenge_mode: %s", proof.Mode)},
		Challenges: proof.Challenges,
		RoundSums:  proof.RoundSums,
		Final:      proof.Final,
	}
}

// proofFromTranscript recovers a sumcheck.Proof from a parsed
// transcript record, reading its Fiat-Shamir mode back out of the
// "challenge_mode: ..." metadata line Prove wrote.
func proofFromTranscript(r transcript.Record) (sumcheck.Proof, error) {
	mode, ok := r.ChallengeMode()
	if !ok {
		return sumcheck.Proof{}, fmt.Errorf("transcript file: missing challenge_mode metadata")
	}
	return sumcheck.Proof{
		Challenges: r.Challenges,
		RoundSums:  r.RoundSums,
		Final:      r.Final,
		Mode:       challenge.Mode(mode),
	}, nil
}

func newProveCmd() *cobra.Command {
	var polyPath, outPath, statement string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "run the sum-check prover over a dense polynomial file and write its canonical transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			poly, p, err := loadPoly(polyPath)
			if err != nil {
				return err
			}
			proof := sumcheck.Prove(poly, p)
			encoded := transcript.Marshal(transcriptRecord(statement, proof))
			if outPath == "" {
				_, err := os.Stdout.Write(encoded)
				return err
			}
			return os.WriteFile(outPath, encoded, 0o644)
		},
	}
	cmd.Flags().StringVar(&polyPath, "poly", "", "path to the polynomial JSON file (required)")
	cmd.Flags().StringVar(&statement, "statement", "", "statement line to carry in the transcript (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the transcript (default stdout)")
	_ = cmd.MarkFlagRequired("poly")
	_ = cmd.MarkFlagRequired("statement")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var polyPath, proofPath string
	var claimedSum uint64
	var useComputedSum bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verify a canonical sum-check transcript against a dense polynomial file",
		RunE: func(cmd *cobra.Command, args []string) error {
			poly, p, err := loadPoly(polyPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(proofPath)
			if err != nil {
				return fmt.Errorf("read transcript file: %w", err)
			}
			r, err := transcript.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse transcript file: %w", err)
			}
			proof, err := proofFromTranscript(r)
			if err != nil {
				return err
			}
			sum := claimedSum
			if useComputedSum {
				sum = sumOf(poly, p)
			}
			if err := sumcheck.Verify(poly, p, sum, proof); err != nil {
				return err
			}
			fmt.Println("proof-valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&polyPath, "poly", "", "path to the polynomial JSON file (required)")
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to the canonical transcript file (required)")
	cmd.Flags().Uint64Var(&claimedSum, "sum", 0, "claimed sum to verify against")
	cmd.Flags().BoolVar(&useComputedSum, "recompute-sum", false, "recompute the claimed sum directly from --poly instead of trusting --sum")
	_ = cmd.MarkFlagRequired("poly")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}
