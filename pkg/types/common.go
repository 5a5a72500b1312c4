// Package types holds the on-chain service record data model shared by the
// codec, validator, store, and query layers: aliases, offers, certificates,
// escrows and messages.
package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Safety levels gate visibility in query scans (§4.9) and are set via
// sysban writes (§4.7 ban propagation).
const (
	SafetyLevelNone = 0
	SafetyLevel1    = 1 // warn: hidden from safeSearch scans
	SafetyLevel2    = 2 // hide: filtered like level 1, only by safeSearch regex scans; category scans, owner listings and scans with safeSearch off return it
)

// Feedback roles, stable small integers per §6.
const (
	FeedbackBuyer = iota
	FeedbackSeller
	FeedbackArbiter
)

// Payment option bitmask, §3 Offer.
const (
	PaymentOptionSYS    = 1
	PaymentOptionBTC    = 2
	PaymentOptionSYSBTC = 3
)

// Escrow transitions, §3 Escrow "current op".
const (
	EscrowActivate = iota
	EscrowRelease
	EscrowRefund
	EscrowComplete
)

// Size limits, §6.
const (
	MaxGUIDLength            = 71
	MaxNameLength            = 255
	MaxValueLength           = 1023
	MaxEncryptedValueLength  = 1108
	MaxOfferChildren         = 100
	MaxFeedbackPerRole       = 10
	ClearWhitelistDiscount   = 127
	MaxWhitelistDiscountPct  = 99
)

// Special aliases that never expire and relax size limits (§4.6.1, SPEC_FULL §4.1).
const (
	AliasPeg      = "sysrates.peg"
	AliasBan      = "sysban"
	AliasCategory = "syscategory"
)

// Rating is a reusable (sum, count) accumulator used for alias reputation
// per role (buyer/seller/arbiter), §3 Alias.
type Rating struct {
	Sum   int64
	Count int64
}

// Versioned is the shared append-only history contract every service record
// satisfies: the height and originating transaction of the version, used by
// store.PutToList (§4.5, §9 "Duplicated records and idempotent writes").
type Versioned interface {
	VersionKey() (height uint32, txHash chainhash.Hash)
}

// Whitelist entry, §3 Offer / GLOSSARY.
type WhitelistEntry struct {
	AliasName   string
	DiscountPct int32
}
