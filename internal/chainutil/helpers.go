package chainutil

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
)

func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }

// btcjsonAmountToSatoshi converts a gettxout-style decimal BTC amount to
// satoshis using btcutil.NewAmount's exact rounding instead of a raw
// float64*1e8 multiply, the way the teacher's wallet RPC wrappers do.
func btcjsonAmountToSatoshi(v float64) (int64, error) {
	amt, err := btcutil.NewAmount(v)
	if err != nil {
		return 0, err
	}
	return int64(amt), nil
}
