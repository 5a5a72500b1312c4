package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Escrow is a 2-of-3 multisig-backed custodial record referencing an offer
// (§3 Escrow, GLOSSARY "Escrow").
type Escrow struct {
	GUID []byte

	BuyerAlias   string
	SellerAlias  string
	ArbiterAlias string

	OfferGUID []byte
	Quantity  int64

	PayMessage []byte // buyer->seller payment-cipher message
	RedeemScript []byte // 2-of-3 multisig redeem script

	BTCFundingTxHex string // optional foreign-chain funding tx hex, when paid in BTC
	RawTx           string // raw partially-signed release/refund transaction

	Op             int // current op: ACTIVATE/RELEASE/REFUND/COMPLETE
	AcceptHeight   uint32 // pins price and discount at activate
	PinnedPrice    int64

	// AffiliateAlias/PinnedCommission mirror accept.go's linked-offer
	// payout split, pinned at ACTIVATE when the escrowed offer is a
	// reseller's linked offer, and checked again at COMPLETE (§4.6.5).
	AffiliateAlias   string
	PinnedCommission int64

	FeedbackBuyer   []Feedback
	FeedbackSeller  []Feedback
	FeedbackArbiter []Feedback

	Height uint32
	TxHash chainhash.Hash
}

func (e *Escrow) VersionKey() (uint32, chainhash.Hash) { return e.Height, e.TxHash }

func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	cp := *e
	cp.GUID = append([]byte(nil), e.GUID...)
	cp.OfferGUID = append([]byte(nil), e.OfferGUID...)
	cp.PayMessage = append([]byte(nil), e.PayMessage...)
	cp.RedeemScript = append([]byte(nil), e.RedeemScript...)
	return &cp
}
