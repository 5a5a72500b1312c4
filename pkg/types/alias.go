package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Alias is the on-chain owner identity record (§3 Alias).
type Alias struct {
	Name    string // lowercased domain-style name, indexed name->GUID (records are keyed by GUID)
	GUID    []byte

	PubKey        []byte
	PublicValue   []byte
	PrivateValue  []byte // ciphertext to owner
	PrivateKey    []byte // ciphertext, only set when transferring

	Renewal    uint8 // 1..5
	SafetyLevel uint8
	SafeSearch bool

	RatingBuyer   Rating
	RatingSeller  Rating
	RatingArbiter Rating

	Height uint32
	TxHash chainhash.Hash
}

func (a *Alias) VersionKey() (uint32, chainhash.Hash) { return a.Height, a.TxHash }

// IsSpecialAliasName reports whether name is one of the three special control
// aliases that never expire and relax size limits.
func IsSpecialAliasName(name string) bool {
	switch name {
	case AliasPeg, AliasBan, AliasCategory:
		return true
	default:
		return false
	}
}

// Clone returns a deep-enough copy suitable for mutation without aliasing
// the slices of the original (store.PutToList must never share backing
// arrays between append-with-replace entries).
func (a *Alias) Clone() *Alias {
	if a == nil {
		return nil
	}
	cp := *a
	cp.GUID = append([]byte(nil), a.GUID...)
	cp.PubKey = append([]byte(nil), a.PubKey...)
	cp.PublicValue = append([]byte(nil), a.PublicValue...)
	cp.PrivateValue = append([]byte(nil), a.PrivateValue...)
	cp.PrivateKey = append([]byte(nil), a.PrivateKey...)
	return &cp
}
