package validator

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/sideeffect"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// checkEscrow implements §4.6.5. The arg vector is
// [escrowGuid, status("0"|"1"), commitment]; status disambiguates a
// transition from its later claim, e.g. COMPLETE(status 0) claims a
// RELEASE/REFUND while COMPLETE(status 1) attaches post-trade feedback.
func (v *Validator) checkEscrow(tx *wire.MsgTx, d *txdecoder.Decoded, data *dataoutput.Found, prev *PrevOps, mode Mode) error {
	rec, err := decodeDataAs(d.Op, data.Data)
	if err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+1, consensus.ClassMalformed, "malformed escrow payload", err)
	}
	e, _ := rec.(*types.Escrow)
	if e == nil {
		return consensus.New(consensus.EscrowErrBase+1, consensus.ClassMalformed, "malformed escrow payload")
	}
	if len(d.Vvch) != 3 {
		return consensus.New(consensus.EscrowErrBase+2, consensus.ClassMalformed, "escrow arity must be 3")
	}
	status := string(d.Vvch[1])

	authAlias := ""
	if prev.Alias != nil && len(prev.Alias.Vvch) > 0 {
		authAlias = string(prev.Alias.Vvch[0])
	}

	switch d.Op {
	case script.EscrowActivate:
		return v.checkEscrowActivate(tx, e, mode)
	case script.EscrowRelease:
		return v.checkEscrowRelease(tx, e, status, authAlias, mode)
	case script.EscrowRefund:
		return v.checkEscrowRefund(tx, e, status, authAlias, mode)
	case script.EscrowComplete:
		return v.checkEscrowComplete(tx, e, status, authAlias, mode)
	default:
		return consensus.New(consensus.EscrowErrBase+3, consensus.ClassMalformed, "unknown escrow op")
	}
}

func (v *Validator) checkEscrowActivate(tx *wire.MsgTx, e *types.Escrow, mode Mode) error {
	if _, ok := v.Store.GetEscrow(e.GUID); ok {
		return consensus.New(consensus.EscrowErrBase+10, consensus.ClassInvariant, "escrow guid already in use")
	}
	if _, ok := v.Store.GetAliasByName(e.BuyerAlias); !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+11, "escrow buyer alias not found")
	}
	if _, ok := v.Store.GetAliasByName(e.SellerAlias); !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+12, "escrow seller alias not found")
	}
	if _, ok := v.Store.GetAliasByName(e.ArbiterAlias); !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+13, "escrow arbiter alias not found")
	}
	offer, ok := v.Store.GetOffer(e.OfferGUID)
	if !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+14, "escrow references unknown offer")
	}
	if offer.IsWanted() {
		return consensus.New(consensus.EscrowErrBase+15, consensus.ClassInvariant, "cannot escrow a wanted offer")
	}
	if e.Quantity <= 0 {
		return consensus.New(consensus.EscrowErrBase+16, consensus.ClassInvariant, "escrow quantity must be positive")
	}
	if len(e.RedeemScript) == 0 {
		return consensus.New(consensus.EscrowErrBase+17, consensus.ClassMalformed, "escrow requires a redeem script")
	}

	// Pin the parent's price and the reseller's commission now, same split
	// as accept.go's linked-offer handling, so COMPLETE can verify the
	// affiliate payout without re-resolving the offer chain.
	var parent *types.Offer
	price := offer.Price
	commission := int64(0)
	affiliateAlias := ""
	if offer.IsLinked() {
		if p, ok := v.Store.GetOffer(offer.LinkOffer); ok {
			parent = p
			price = parent.Price
			commission = offer.Price - price
			affiliateAlias = offer.Alias
		}
	}
	if offer.Quantity >= 0 && e.Quantity > offer.Quantity {
		return consensus.New(consensus.EscrowErrBase+18, consensus.ClassInvariant, "escrow quantity exceeds offer quantity")
	}

	e.Op = types.EscrowActivate
	e.AcceptHeight = v.Tip.Height()
	e.PinnedPrice = price
	e.AffiliateAlias = affiliateAlias
	e.PinnedCommission = commission
	e.Height = v.Tip.Height()
	e.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}
	offer = offer.Clone()
	if offer.Quantity >= 0 { // -1 (unlimited) is never decremented
		offer.Quantity -= e.Quantity
	}
	offer.Sold += e.Quantity
	if err := v.Store.PutOffer(offer); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+19, consensus.ClassStorageIO, "failed to persist offer after escrow activate", err)
	}
	if parent != nil {
		parent = parent.Clone()
		if parent.Quantity >= 0 {
			parent.Quantity -= e.Quantity
		}
		parent.Sold += e.Quantity
		_ = v.Store.PutOffer(parent)
	}
	if err := v.Store.PutEscrow(e); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+20, consensus.ClassStorageIO, "failed to persist escrow", err)
	}
	return nil
}

func (v *Validator) checkEscrowRelease(tx *wire.MsgTx, e *types.Escrow, status, authAlias string, mode Mode) error {
	existing, ok := v.Store.GetEscrow(e.GUID)
	if !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+30, "release of unknown escrow")
	}
	if status != "0" {
		return consensus.New(consensus.EscrowErrBase+31, consensus.ClassMalformed, "release status must be 0")
	}
	rereleasing := existing.Op == types.EscrowRelease
	if rereleasing {
		if authAlias != existing.ArbiterAlias {
			return consensus.New(consensus.EscrowErrBase+32, consensus.ClassAuthorization, "re-release requires the arbiter")
		}
	} else {
		if existing.Op != types.EscrowActivate {
			return consensus.New(consensus.EscrowErrBase+33, consensus.ClassInvariant, "release only valid on an active escrow")
		}
		if authAlias != existing.BuyerAlias && authAlias != existing.ArbiterAlias {
			return consensus.New(consensus.EscrowErrBase+34, consensus.ClassAuthorization, "release requires buyer or arbiter authorization")
		}
	}

	existing = existing.Clone()
	existing.Op = types.EscrowRelease
	existing.PayMessage = e.PayMessage
	existing.Height = v.Tip.Height()
	existing.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}
	if err := v.Store.PutEscrow(existing); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+35, consensus.ClassStorageIO, "failed to persist escrow release", err)
	}
	return nil
}

func (v *Validator) checkEscrowRefund(tx *wire.MsgTx, e *types.Escrow, status, authAlias string, mode Mode) error {
	existing, ok := v.Store.GetEscrow(e.GUID)
	if !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+40, "refund of unknown escrow")
	}
	if status != "0" {
		return consensus.New(consensus.EscrowErrBase+41, consensus.ClassMalformed, "refund status must be 0")
	}
	rerefunding := existing.Op == types.EscrowRefund
	if rerefunding {
		if authAlias != existing.ArbiterAlias {
			return consensus.New(consensus.EscrowErrBase+42, consensus.ClassAuthorization, "re-refund requires the arbiter")
		}
	} else {
		if existing.Op != types.EscrowActivate {
			return consensus.New(consensus.EscrowErrBase+43, consensus.ClassInvariant, "refund only valid on an active escrow")
		}
		if authAlias != existing.SellerAlias && authAlias != existing.ArbiterAlias {
			return consensus.New(consensus.EscrowErrBase+44, consensus.ClassAuthorization, "refund requires seller or arbiter authorization")
		}
	}

	firstRefund := !rerefunding
	existing = existing.Clone()
	existing.Op = types.EscrowRefund
	existing.Height = v.Tip.Height()
	existing.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}
	if firstRefund {
		if offer, ok := v.Store.GetOffer(existing.OfferGUID); ok {
			offer = offer.Clone()
			if offer.Quantity >= 0 { // -1 (unlimited) is left as is
				offer.Quantity += existing.Quantity
			}
			offer.Sold -= existing.Quantity
			_ = v.Store.PutOffer(offer)
			if offer.IsLinked() {
				if p, ok := v.Store.GetOffer(offer.LinkOffer); ok {
					p = p.Clone()
					if p.Quantity >= 0 {
						p.Quantity += existing.Quantity
					}
					p.Sold -= existing.Quantity
					_ = v.Store.PutOffer(p)
				}
			}
		}
	}
	if err := v.Store.PutEscrow(existing); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+45, consensus.ClassStorageIO, "failed to persist escrow refund", err)
	}
	return nil
}

func (v *Validator) checkEscrowComplete(tx *wire.MsgTx, e *types.Escrow, status, authAlias string, mode Mode) error {
	existing, ok := v.Store.GetEscrow(e.GUID)
	if !ok {
		return skipOrReject(mode, consensus.EscrowErrBase+50, "complete of unknown escrow")
	}

	if status == "1" {
		return v.checkEscrowCompleteFeedback(existing, e, mode)
	}
	if status != "0" {
		return consensus.New(consensus.EscrowErrBase+51, consensus.ClassMalformed, "complete status must be 0 or 1")
	}

	switch existing.Op {
	case types.EscrowRelease:
		if authAlias != existing.SellerAlias {
			return consensus.New(consensus.EscrowErrBase+52, consensus.ClassAuthorization, "completing a release requires the seller")
		}
		want := existing.PinnedPrice * existing.Quantity
		if !rawTxPaysAlias(v, e.RawTx, existing.SellerAlias, want) {
			return consensus.New(consensus.EscrowErrBase+53, consensus.ClassInvariant, "raw release transaction does not pay the expected merchant amount")
		}
		arbiterFee := sideeffect.ArbiterFee(want, v.MinRelayFeePerKB)
		if !rawTxPaysAlias(v, e.RawTx, existing.ArbiterAlias, arbiterFee) {
			return consensus.New(consensus.EscrowErrBase+58, consensus.ClassInvariant, "raw release transaction does not pay the expected arbiter fee")
		}
		if existing.AffiliateAlias != "" && existing.PinnedCommission > 0 {
			wantCommission := existing.PinnedCommission * existing.Quantity
			if !rawTxPaysAlias(v, e.RawTx, existing.AffiliateAlias, wantCommission) {
				return consensus.New(consensus.EscrowErrBase+59, consensus.ClassInvariant, "raw release transaction does not pay the expected affiliate commission")
			}
		}
	case types.EscrowRefund:
		// refund completion pays only the buyer; a seller-initiated
		// refund-then-complete carries no arbiter fee (SPEC_FULL §4 item 8).
		if authAlias != existing.BuyerAlias {
			return consensus.New(consensus.EscrowErrBase+54, consensus.ClassAuthorization, "completing a refund requires the buyer")
		}
		want := existing.PinnedPrice * existing.Quantity
		if !rawTxPaysAlias(v, e.RawTx, existing.BuyerAlias, want) {
			return consensus.New(consensus.EscrowErrBase+55, consensus.ClassInvariant, "raw refund transaction does not pay the expected buyer amount")
		}
	default:
		return consensus.New(consensus.EscrowErrBase+56, consensus.ClassInvariant, "complete requires a prior release or refund")
	}

	existing = existing.Clone()
	existing.Op = types.EscrowComplete
	existing.RawTx = e.RawTx
	existing.Height = v.Tip.Height()
	existing.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}
	if err := v.Store.PutEscrow(existing); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+57, consensus.ClassStorageIO, "failed to persist escrow complete", err)
	}
	return nil
}

// checkEscrowCompleteFeedback implements the COMPLETE(status 1) feedback
// leg: two feedback entries, one per pair of parties, mirroring §4.6.3's
// rules (no self-rating, rating<=5, <=10 per role, only the first counts).
func (v *Validator) checkEscrowCompleteFeedback(existing *types.Escrow, e *types.Escrow, mode Mode) error {
	if existing.Op != types.EscrowComplete {
		return consensus.New(consensus.EscrowErrBase+60, consensus.ClassInvariant, "feedback requires a completed escrow")
	}
	items := append(append(append([]types.Feedback{}, e.FeedbackBuyer...), e.FeedbackSeller...), e.FeedbackArbiter...)
	if len(items) != 2 {
		return consensus.New(consensus.EscrowErrBase+61, consensus.ClassMalformed, "completion feedback requires exactly two entries")
	}

	existing = existing.Clone()
	applied := make([]types.Feedback, 0, len(items))
	for _, fb := range items {
		if fb.From == fb.To {
			return consensus.New(consensus.EscrowErrBase+62, consensus.ClassAuthorization, "feedback sender and target must differ")
		}
		if fb.Rating > 5 {
			return consensus.New(consensus.EscrowErrBase+63, consensus.ClassInvariant, "rating exceeds 5")
		}
		list := escrowFeedbackList(existing, fb.To)
		if len(list) >= types.MaxFeedbackPerRole {
			return consensus.New(consensus.EscrowErrBase+64, consensus.ClassInvariant, "feedback limit per role reached")
		}
		if len(list) > 0 {
			fb.Rating = 0
		}
		setEscrowFeedbackList(existing, fb.To, append(list, fb))
		applied = append(applied, fb)
	}

	if mode == JustCheck {
		return nil
	}
	if err := v.Store.PutEscrow(existing); err != nil {
		return consensus.Wrap(consensus.EscrowErrBase+65, consensus.ClassStorageIO, "failed to persist escrow feedback", err)
	}
	for _, fb := range applied {
		v.applyEscrowRating(fb, existing)
	}
	return nil
}

func (v *Validator) applyEscrowRating(fb types.Feedback, e *types.Escrow) {
	var targetName string
	switch fb.To {
	case types.FeedbackBuyer:
		targetName = e.BuyerAlias
	case types.FeedbackSeller:
		targetName = e.SellerAlias
	case types.FeedbackArbiter:
		targetName = e.ArbiterAlias
	default:
		return
	}
	al, ok := v.Store.GetAliasByName(targetName)
	if !ok || fb.Rating == 0 {
		return
	}
	al = al.Clone()
	switch fb.To {
	case types.FeedbackBuyer:
		al.RatingBuyer.Sum += int64(fb.Rating)
		al.RatingBuyer.Count++
	case types.FeedbackSeller:
		al.RatingSeller.Sum += int64(fb.Rating)
		al.RatingSeller.Count++
	case types.FeedbackArbiter:
		al.RatingArbiter.Sum += int64(fb.Rating)
		al.RatingArbiter.Count++
	}
	_ = v.Store.PutAlias(al)
}

func escrowFeedbackList(e *types.Escrow, role int) []types.Feedback {
	switch role {
	case types.FeedbackBuyer:
		return e.FeedbackBuyer
	case types.FeedbackSeller:
		return e.FeedbackSeller
	default:
		return e.FeedbackArbiter
	}
}

func setEscrowFeedbackList(e *types.Escrow, role int, list []types.Feedback) {
	switch role {
	case types.FeedbackBuyer:
		e.FeedbackBuyer = list
	case types.FeedbackSeller:
		e.FeedbackSeller = list
	default:
		e.FeedbackArbiter = list
	}
}

// rawTxPaysAlias parses a hex-encoded raw transaction and checks it carries
// an output paying at least want to aliasName's address. The validator does
// not verify the raw transaction's signatures or broadcast it — §4.6.5
// leaves broadcast to the wallet; this only checks the payout shape claimed
// at COMPLETE time.
func rawTxPaysAlias(v *Validator, rawTxHex string, aliasName string, want int64) bool {
	if want <= 0 {
		return true
	}
	raw, err := hex.DecodeString(rawTxHex)
	if err != nil {
		return false
	}
	var parsed wire.MsgTx
	if err := parsed.Deserialize(bytes.NewReader(raw)); err != nil {
		return false
	}
	return payoutPresent(&parsed, v, aliasName, want)
}
