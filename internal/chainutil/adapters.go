package chainutil

import (
	"log"

	"github.com/btcsuite/btcd/wire"
)

// ChainTip adapts Client to internal/chainiface.ChainTip. It polls
// GetBlockCount on each call rather than caching, mirroring the teacher's
// preference for asking the node directly over maintaining local state
// that could drift (internal/bitcoin/client.go has no height cache either).
type ChainTip struct{ Client *Client }

func (t ChainTip) Height() uint32 {
	h, err := t.Client.GetBlockCount()
	if err != nil {
		log.Printf("[chainutil] GetBlockCount failed, reporting height 0: %v", err)
		return 0
	}
	return uint32(h)
}

// UTXOView adapts Client to internal/chainiface.UTXOView via gettxout.
type UTXOView struct{ Client *Client }

func (u UTXOView) PrevOut(outpoint wire.OutPoint) (*wire.TxOut, bool) {
	out, err := u.Client.GetTxOut(&outpoint.Hash, outpoint.Index)
	if err != nil || out == nil {
		return nil, false
	}
	return out, true
}
