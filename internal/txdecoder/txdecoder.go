// Package txdecoder locates and classifies the single service output of a
// transaction (§4.3), grounded in alias.cpp's repeated
// "tx.nVersion != SYSCOIN_TX_VERSION" guard and DecodeAliasTx-style output
// scans.
package txdecoder

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/script"
)

// ServiceTxVersion is the distinguished wire.MsgTx.Version value a
// transaction must carry to be considered for service validation (§4.3).
// The pack's retrieved original_source/ slice defines SYSCOIN_TX_VERSION
// in a header not included in the retrieval; this value is this module's
// chosen consensus constant.
const ServiceTxVersion = 0x7407

// Decoded is the result of scanning a transaction for its service output.
type Decoded struct {
	Op         script.Op
	Vvch       [][]byte
	DestScript []byte
	VoutIndex  int
}

// Decode scans tx's outputs and returns the first one whose scriptPubKey
// parses as a service op. A non-service-version transaction is not an
// error here; callers check IsServiceVersion before invoking the validator
// (§4.3: "non-service transactions are rejected immediately by the
// validator").
func Decode(tx *wire.MsgTx) (*Decoded, error) {
	var found *Decoded
	for i, out := range tx.TxOut {
		op, vvch, dest, err := script.Parse(out.PkScript)
		if err != nil {
			continue // not a service-shaped script, try the next output
		}
		if found != nil {
			return nil, fmt.Errorf("txdecoder: duplicate service output at index %d (first at %d)", i, found.VoutIndex)
		}
		found = &Decoded{Op: op, Vvch: vvch, DestScript: dest, VoutIndex: i}
	}
	if found == nil {
		return nil, fmt.Errorf("txdecoder: no service output found")
	}
	return found, nil
}

// IsServiceVersion reports whether tx carries the distinguished service
// transaction version (§4.3).
func IsServiceVersion(tx *wire.MsgTx) bool {
	return tx.Version == ServiceTxVersion
}
