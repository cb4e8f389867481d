// Package node implements the anchor-gossip receive pipeline: duplicate
// suppression, per-namespace rate limiting, and envelope verification,
// each observed through the Prometheus counters of spec.md §6. It is
// the join point a live gossip loop would drive on every inbound
// message; with no real transport provided (internal/transport is a
// shim), cmd/jrocnet's gossip commands exercise it directly against
// envelope files read from disk.
package node

import (
	"errors"
	"time"

	"github.com/jrocnet/ledger/internal/envelope"
	"github.com/jrocnet/ledger/internal/ledger"
	"github.com/jrocnet/ledger/internal/metrics"
	"github.com/jrocnet/ledger/internal/ratelimit"
)

// ErrDuplicate and ErrRateLimited are the two non-cryptographic
// rejection reasons Receive returns; a signature/schema failure
// surfaces envelope's own sentinel errors unchanged.
var (
	ErrDuplicate   = errors.New("node: duplicate envelope")
	ErrRateLimited = errors.New("node: namespace rate limit exceeded")
)

// Receiver runs inbound anchor envelopes through duplicate suppression
// and a per-namespace rate limit before the more expensive signature
// check, per spec.md §5/§6.
type Receiver struct {
	dedup   *ratelimit.DuplicateCache
	limiter *ratelimit.NamespaceLimiter
}

// NewReceiver builds a Receiver with the given duplicate-cache capacity
// and per-namespace submissions-per-minute cap.
func NewReceiver(dedupCapacity, maxPerMinute int) *Receiver {
	return &Receiver{
		dedup:   ratelimit.NewDuplicateCache(dedupCapacity),
		limiter: ratelimit.NewNamespaceLimiter(maxPerMinute),
	}
}

// Receive verifies raw as a signed anchor envelope reported under
// namespace at instant now, incrementing the counter matching whichever
// stage rejects it (or accepts it).
func (r *Receiver) Receive(namespace string, raw []byte, now time.Time) (ledger.AnchorDocument, error) {
	metrics.AnchorsReceivedTotal.Inc()

	before := r.dedup.Evictions()
	dup := r.dedup.Seen(envelope.CanonicalDigestInput(raw))
	if evicted := r.dedup.Evictions() - before; evicted > 0 {
		metrics.LRUCacheEvictionsTotal.Add(float64(evicted))
	}
	if dup {
		metrics.GossipsubRejectsTotal.Inc()
		return ledger.AnchorDocument{}, ErrDuplicate
	}

	if !r.limiter.Allow(namespace, now) {
		metrics.GossipsubRejectsTotal.Inc()
		return ledger.AnchorDocument{}, ErrRateLimited
	}

	_, doc, err := envelope.ParseAndVerify(raw)
	if err != nil {
		metrics.InvalidEnvelopesTotal.Inc()
		return ledger.AnchorDocument{}, err
	}
	metrics.AnchorsVerifiedTotal.Inc()
	return doc, nil
}
