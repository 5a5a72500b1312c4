// Package expiry implements the pure expiration rule of §4.8, grounded in
// alias.cpp's GetAliasExpirationDepth/GetCertExpirationDepth/
// GetMessageExpirationDepth: a single chain-wide depth constant multiplied
// by renewal (aliases only).
package expiry

import "github.com/syscoin/svcconsensus/pkg/types"

// Depth is the chain-wide expiration constant for a service type, in
// blocks. Debug/regtest networks use a short depth so expiration tests run
// fast; mainnet uses roughly one year of blocks (§4.8).
const (
	DepthDebug   = 1440
	DepthMainnet = 525600
)

// Expired reports whether a record last touched at lastHeight, with the
// given renewal multiplier (1 for non-alias record types), is expired at
// tip.
func Expired(tip uint32, lastHeight uint32, renewal uint8, depth uint32) bool {
	if renewal == 0 {
		renewal = 1
	}
	return tip > lastHeight+depth*uint32(renewal)
}

// AliasExpired reports whether a is expired at tip, honoring special
// control aliases (sysrates.peg, sysban, syscategory) which never expire.
func AliasExpired(a *types.Alias, tip uint32, depth uint32) bool {
	if types.IsSpecialAliasName(a.Name) {
		return false
	}
	return Expired(tip, a.Height, a.Renewal, depth)
}

// OfferExpired applies the common rule to the offer's own last-touched
// height with a renewal factor of 1. It does not consult the expiry state
// of the alias the offer is bound to.
func OfferExpired(o *types.Offer, tip uint32, depth uint32) bool {
	return Expired(tip, o.Height, 1, depth)
}

func CertExpired(c *types.Cert, tip uint32, depth uint32) bool {
	return Expired(tip, c.Height, 1, depth)
}

// EscrowExpired: escrows still in ACTIVATE/RELEASE/REFUND never expire;
// only a COMPLETE-terminal escrow follows the simple depth rule (§4.8).
func EscrowExpired(e *types.Escrow, tip uint32, depth uint32) bool {
	if e.Op != types.EscrowComplete {
		return false
	}
	return Expired(tip, e.Height, 1, depth)
}

func MessageExpired(m *types.Message, tip uint32, depth uint32) bool {
	return Expired(tip, m.Height, 1, depth)
}
