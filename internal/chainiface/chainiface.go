// Package chainiface declares the external collaborators the validator (C6)
// and side-effect engine (C7) depend on but do not own: the UTXO set, the
// chain tip, and mempool-pending accepts. Concrete implementations live in
// internal/chainutil and internal/mempoolwatch; tests supply fakes.
package chainiface

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UTXOView is the subset of CCoinsViewCache the validator needs: resolving
// a transaction's inputs to their previous outputs so it can read the
// script prefix of the input that funded a service transaction (§4.6's
// "previous input op" checks).
type UTXOView interface {
	// PrevOut returns the output referenced by outpoint, or ok=false if it
	// is not present in the view (spent or unknown).
	PrevOut(outpoint wire.OutPoint) (out *wire.TxOut, ok bool)
}

// ChainTip reports the height the validator should treat as "active tip"
// for expiration (§4.8) and future-height rejection (§7.5).
type ChainTip interface {
	Height() uint32
}

// PendingAcceptView answers how many units of an offer are reserved by
// currently-mempool-pending (not yet connected) accept transactions, so
// JustCheck can reject an oversell race across concurrently pending
// transactions (SPEC_FULL §4 item 6, "QtyOfPendingAcceptsInMempool").
type PendingAcceptView interface {
	PendingAcceptQty(offerGUID []byte, exclude chainhash.Hash) int64
}
