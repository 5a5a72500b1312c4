package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Offer is a marketplace listing keyed by GUID (§3 Offer).
type Offer struct {
	GUID []byte

	Alias    string // controlling alias name
	Title    string
	Category string
	Description string
	Currency string

	AliasPeg string // the peg alias whose public value holds the rate table

	Price      int64 // in currency units, fixed-point per peg precision
	Quantity   int64 // -1 == unlimited
	Sold       int64

	CommissionPct int32 // -90..100
	LinkOffer     []byte // parent guid, if this is a reseller front
	CertGUID      []byte // optional, forces Quantity == 1 and digital delivery
	PaymentOptions uint8  // bitmask SYS=1 BTC=2 SYSBTC=3

	Private     bool
	SafetyLevel uint8
	SafeSearch  bool

	Whitelist     []WhitelistEntry
	WhitelistExclusive bool

	OfferLinks []string // child offer guids (hex), reseller fronts pointing here

	Height uint32
	TxHash chainhash.Hash
}

func (o *Offer) VersionKey() (uint32, chainhash.Hash) { return o.Height, o.TxHash }

// IsWanted reports whether this is a "wanted"-category offer, which cannot
// be purchased (§4.6.2/4.6.3, SPEC_FULL §4 item 7: a literal category string
// check for fidelity with the original implementation).
func (o *Offer) IsWanted() bool { return o.Category == "wanted" }

func (o *Offer) IsLinked() bool { return len(o.LinkOffer) > 0 }

func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	cp := *o
	cp.GUID = append([]byte(nil), o.GUID...)
	cp.LinkOffer = append([]byte(nil), o.LinkOffer...)
	cp.CertGUID = append([]byte(nil), o.CertGUID...)
	cp.Whitelist = append([]WhitelistEntry(nil), o.Whitelist...)
	cp.OfferLinks = append([]string(nil), o.OfferLinks...)
	return &cp
}

// Accept is a purchase record under an offer (§3 Offer, GLOSSARY "Accept").
type Accept struct {
	OfferGUID []byte
	AcceptGUID []byte

	BuyerAlias string
	Quantity   int64

	AcceptHeight uint32 // carried in the payload; the validator prices an accept from the offer's current version and does not read this field

	BuyerPrice int64 // price actually paid, post-discount/affiliate split
	Commission int64 // affiliate commission, if linked

	BTCTxID string // foreign-chain txid when paid in BTC, skips on-chain payment check

	FeedbackBuyer   []Feedback
	FeedbackSeller  []Feedback
	FeedbackArbiter []Feedback

	Height uint32
	TxHash chainhash.Hash
}

func (a *Accept) VersionKey() (uint32, chainhash.Hash) { return a.Height, a.TxHash }

// Feedback is a rating (0-5) plus free text, emitted post-transaction
// (GLOSSARY "Feedback").
type Feedback struct {
	From   int // FEEDBACKBUYER/SELLER/ARBITER
	To     int
	Rating uint8
	Text   string
}
