// Package mempoolwatch polls the node for unconfirmed and newly connected
// service transactions, runs them through the validator, and pushes the
// results out over a realtime hub, grounded in the teacher's
// internal/mempool/poller.go (ticker-driven scan, seen-txid dedup, capped
// per-tick batch) and internal/api/websocket.go's Hub.Broadcast.
package mempoolwatch

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type pendingAccept struct {
	offerGUID string
	quantity  int64
}

// Tracker implements internal/chainiface.PendingAcceptView: it remembers
// the accept-purchase quantity reserved by every mempool-pending (not yet
// connected) accept transaction currently known to the watcher, so a
// concurrently submitted accept racing for the same inventory is rejected
// by JustCheck instead of both being admitted (SPEC_FULL §4 item 6).
type Tracker struct {
	mu      sync.Mutex
	pending map[chainhash.Hash]pendingAccept
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[chainhash.Hash]pendingAccept)}
}

// Track records that txHash reserves quantity units of offerGUID. Call
// this once a JustCheck pass over an accept-purchase transaction succeeds.
func (t *Tracker) Track(offerGUID []byte, txHash chainhash.Hash, quantity int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[txHash] = pendingAccept{offerGUID: keyOf(offerGUID), quantity: quantity}
}

// Forget drops txHash's reservation, called once it connects in a block
// (the offer's real Quantity has now been decremented by the validator).
// A reservation whose transaction leaves the mempool without confirming
// is not dropped.
func (t *Tracker) Forget(txHash chainhash.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, txHash)
}

// PendingAcceptQty sums the reserved quantity for offerGUID across every
// tracked transaction except exclude (the transaction currently being
// checked, which may already be tracked from an earlier JustCheck pass).
func (t *Tracker) PendingAcceptQty(offerGUID []byte, exclude chainhash.Hash) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	want := keyOf(offerGUID)
	var sum int64
	for h, p := range t.pending {
		if h == exclude {
			continue
		}
		if p.offerGUID == want {
			sum += p.quantity
		}
	}
	return sum
}

func keyOf(guid []byte) string { return string(guid) }
