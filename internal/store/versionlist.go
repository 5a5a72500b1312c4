// Package store implements the ordered version-list persistence model of
// §4.5/§9, grounded in alias.cpp's PutToAliasList: a reverse scan that
// replaces an existing entry on a matching height or matching transaction
// hash, and only appends when neither matches. This is the shared
// primitive behind all five service stores.
package store

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// PutToList replaces the entry in list whose height equals rec's height
// (and rec's height is non-zero), or whose txHash equals rec's txHash (and
// that txHash is non-null), scanning from the tail. If neither matches,
// rec is appended. This is the idempotent re-apply semantics blocks need
// for reorg replay (§9).
func PutToList[T types.Versioned](list []T, rec T) []T {
	h, txHash := rec.VersionKey()
	for i := len(list) - 1; i >= 0; i-- {
		lh, ltx := list[i].VersionKey()
		if h != 0 && lh == h {
			list[i] = rec
			return list
		}
		if ltx != (chainhash.Hash{}) && ltx == txHash {
			list[i] = rec
			return list
		}
	}
	return append(list, rec)
}

// Current returns the last (most recent) element of list, the "current"
// record per §4.5.
func Current[T any](list []T) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	return list[len(list)-1], true
}
