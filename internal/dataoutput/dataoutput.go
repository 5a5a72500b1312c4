// Package dataoutput verifies the OP_RETURN data output that accompanies
// every service transaction (§4.4).
package dataoutput

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/codec"
)

// Found is the parsed OP_RETURN output: its payload, the commitment pushed
// alongside it, and the satoshi amount carried (checked against the
// storage fee).
type Found struct {
	Data       []byte
	Commitment string
	Amount     int64
	VoutIndex  int
}

// Extract scans tx's outputs for the single `OP_RETURN <data> <commitment>`
// output mandated by §6. More or fewer than one is a malformed-transaction
// fault (the caller should map this to consensus.ClassMalformed).
func Extract(tx *wire.MsgTx) (*Found, error) {
	var found *Found
	for i, out := range tx.TxOut {
		tokenizer := txscript.MakeScriptTokenizer(0, out.PkScript)
		if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
			continue
		}
		if !tokenizer.Next() {
			continue
		}
		data := tokenizer.Data()
		if !tokenizer.Next() {
			continue
		}
		commitment := string(tokenizer.Data())
		if tokenizer.Next() {
			continue // more than two pushes after OP_RETURN, not our shape
		}
		if found != nil {
			return nil, fmt.Errorf("dataoutput: duplicate OP_RETURN service output at index %d (first at %d)", i, found.VoutIndex)
		}
		found = &Found{Data: data, Commitment: commitment, Amount: out.Value, VoutIndex: i}
	}
	if found == nil {
		return nil, fmt.Errorf("dataoutput: no OP_RETURN service output found")
	}
	return found, nil
}

// VerifyCommitment reports whether the commitment computed from data
// matches want, the commitment pushed in the service output (§4.1/§4.4).
func VerifyCommitment(data []byte, want string) bool {
	return codec.CommitmentHash(data) == want
}

// MinFee computes the storage fee floor of §4.4:
// max(0.02·COIN, 3·minRelayFee·(serializedSize+148)).
func MinFee(serializedSize int, minRelayFeePerKB int64) int64 {
	const coin = int64(btcutil.SatoshiPerBitcoin)
	floor := coin / 50 // 0.02 * COIN
	scaled := 3 * minRelayFeePerKB * int64(serializedSize+148) / 1000
	if scaled > floor {
		return scaled
	}
	return floor
}

// VerifyFee reports whether amount meets the storage fee floor.
func VerifyFee(amount int64, serializedSize int, minRelayFeePerKB int64) bool {
	return amount >= MinFee(serializedSize, minRelayFeePerKB)
}
