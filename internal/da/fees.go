package da

import (
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/policy"
)

// SettleIngestFee implements spec.md 4.J's fee flow for one commitment:
// fee is debited from the publisher's balance (or the operator's, if the
// publisher has no stake entry), operatorRewardBps/10000 of fee credits
// the operator, and the remainder is split across the commitment's
// current attestors proportionally to their bonded amount. Called once a
// commitment's QC has formed, since the attestor set is only known then.
func SettleIngestFee(c Commitment, stake *policy.Stake, operator ed25519.PublicKey, operatorRewardBps uint64) {
	payer := c.Publisher
	if _, ok := stake.Entry(payer); !ok {
		payer = operator
	}
	debit(stake, payer, c.Fee)

	operatorShare := c.Fee * operatorRewardBps / 10000
	credit(stake, operator, operatorShare)

	remainder := c.Fee - operatorShare
	distributeToAttestors(stake, c.Attestations, remainder)
}

func debit(stake *policy.Stake, pk ed25519.PublicKey, amount uint64) {
	entry, ok := stake.Entry(pk)
	if !ok {
		return
	}
	if amount > entry.Balance {
		amount = entry.Balance
	}
	entry.Balance -= amount
	stake.SetEntry(pk, entry)
}

func credit(stake *policy.Stake, pk ed25519.PublicKey, amount uint64) {
	entry, ok := stake.Entry(pk)
	if !ok {
		entry = policy.StakeEntry{}
	}
	entry.Balance += amount
	stake.SetEntry(pk, entry)
}

func distributeToAttestors(stake *policy.Stake, attestations []Attestation, remainder uint64) {
	if remainder == 0 || len(attestations) == 0 {
		return
	}

	var totalBonded uint64
	bonded := make([]uint64, len(attestations))
	for i, a := range attestations {
		entry, ok := stake.Entry(a.Signer)
		if !ok {
			continue
		}
		bonded[i] = entry.Bonded
		totalBonded += entry.Bonded
	}
	if totalBonded == 0 {
		return
	}

	for i, a := range attestations {
		if bonded[i] == 0 {
			continue
		}
		share := remainder * bonded[i] / totalBonded
		credit(stake, a.Signer, share)
	}
}
