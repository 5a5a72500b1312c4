package validator

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// checkAccept implements §4.6.3: offer accept is both a purchase
// transition (feedbackFlag "0") and a feedback transition (feedbackFlag
// "1") over the same accept record.
func (v *Validator) checkAccept(tx *wire.MsgTx, d *txdecoder.Decoded, data *dataoutput.Found, prev *PrevOps, mode Mode) error {
	rec, err := decodeDataAs(d.Op, data.Data)
	if err != nil {
		return consensus.Wrap(consensus.AcceptErrBase+1, consensus.ClassMalformed, "malformed accept payload", err)
	}
	acc, _ := rec.(*types.Accept)
	if acc == nil {
		return consensus.New(consensus.AcceptErrBase+1, consensus.ClassMalformed, "malformed accept payload")
	}
	if len(d.Vvch) != 4 {
		return consensus.New(consensus.AcceptErrBase+2, consensus.ClassMalformed, "offer accept arity must be 4")
	}
	feedbackFlag := string(d.Vvch[2])

	offer, ok := v.Store.GetOffer(acc.OfferGUID)
	if !ok {
		return skipOrReject(mode, consensus.AcceptErrBase+3, "accept references unknown offer")
	}

	switch feedbackFlag {
	case "0":
		return v.checkAcceptPurchase(tx, acc, offer, mode)
	case "1":
		return v.checkAcceptFeedback(tx, acc, mode)
	default:
		return consensus.New(consensus.AcceptErrBase+4, consensus.ClassMalformed, "feedback flag must be 0 or 1")
	}
}

func (v *Validator) checkAcceptPurchase(tx *wire.MsgTx, acc *types.Accept, offer *types.Offer, mode Mode) error {
	if offer.IsWanted() {
		return consensus.New(consensus.AcceptErrBase+10, consensus.ClassInvariant, "cannot accept a wanted offer")
	}
	if len(offer.CertGUID) > 0 && acc.Quantity != 1 {
		return consensus.New(consensus.AcceptErrBase+11, consensus.ClassInvariant, "certificate offers require exactly 1 purchased")
	}
	if acc.Quantity <= 0 {
		return consensus.New(consensus.AcceptErrBase+12, consensus.ClassInvariant, "accept quantity must be positive")
	}
	if offer.Quantity >= 0 {
		pending := int64(0)
		if v.PendingAccepts != nil {
			pending = v.PendingAccepts.PendingAcceptQty(offer.GUID, tx.TxHash())
		}
		if acc.Quantity+pending > offer.Quantity {
			return consensus.New(consensus.AcceptErrBase+13, consensus.ClassInvariant, "accept quantity exceeds offer quantity")
		}
	}

	buyerPrice := offer.Price
	commission := int64(0)
	var parent *types.Offer
	if offer.IsLinked() {
		p, ok := v.Store.GetOffer(offer.LinkOffer)
		if ok {
			parent = p
			buyerPrice = parent.Price
			commission = offer.Price - buyerPrice
		}
	}
	if buyerAlias, ok := v.Store.GetAliasByName(acc.BuyerAlias); ok {
		disc := whitelistDiscount(offer.Whitelist, buyerAlias.Name)
		if disc == types.ClearWhitelistDiscount {
			disc = 0
		}
		buyerPrice = buyerPrice - (buyerPrice * int64(disc) / 100)
	}

	if acc.BTCTxID == "" {
		wantMerchant := buyerPrice * acc.Quantity
		merchantAlias := offer.Alias
		if offer.IsLinked() && parent != nil {
			// A linked (reseller) offer's buyer-price share belongs to the
			// upstream parent merchant; only the commission is the
			// reseller's own.
			merchantAlias = parent.Alias
		}
		if !payoutPresent(tx, v, merchantAlias, wantMerchant) {
			return consensus.New(consensus.AcceptErrBase+14, consensus.ClassInvariant, "missing merchant payment output")
		}
		if offer.IsLinked() && commission > 0 {
			wantCommission := commission * acc.Quantity
			if !payoutPresent(tx, v, offer.Alias, wantCommission) {
				return consensus.New(consensus.AcceptErrBase+15, consensus.ClassInvariant, "missing affiliate commission output")
			}
		}
	}

	acc.BuyerPrice = buyerPrice
	acc.Commission = commission
	acc.Height = v.Tip.Height()
	acc.TxHash = tx.TxHash()
	if len(acc.AcceptGUID) == 0 {
		acc.AcceptGUID = tx.TxHash().CloneBytes()
	}

	if mode == JustCheck {
		return nil
	}

	offer = offer.Clone()
	if offer.Quantity >= 0 { // -1 (unlimited) is never decremented
		offer.Quantity -= acc.Quantity
	}
	offer.Sold += acc.Quantity
	if err := v.Store.PutOffer(offer); err != nil {
		return consensus.Wrap(consensus.AcceptErrBase+16, consensus.ClassStorageIO, "failed to persist offer after accept", err)
	}
	if parent != nil {
		parent = parent.Clone()
		if parent.Quantity >= 0 {
			parent.Quantity -= acc.Quantity
		}
		parent.Sold += acc.Quantity
		_ = v.Store.PutOffer(parent)
	}
	if err := v.Store.PutAccept(acc); err != nil {
		return consensus.Wrap(consensus.AcceptErrBase+17, consensus.ClassStorageIO, "failed to persist accept", err)
	}
	return nil
}

func (v *Validator) checkAcceptFeedback(tx *wire.MsgTx, acc *types.Accept, mode Mode) error {
	existing, ok := v.Store.GetAccept(acc.AcceptGUID)
	if !ok {
		return skipOrReject(mode, consensus.AcceptErrBase+20, "feedback on unknown accept")
	}

	fb, role, err := singleFeedback(acc)
	if err != nil {
		return consensus.New(consensus.AcceptErrBase+21, consensus.ClassMalformed, err.Error())
	}
	if fb.From == fb.To {
		return consensus.New(consensus.AcceptErrBase+22, consensus.ClassAuthorization, "feedback sender and target must differ")
	}
	if fb.Rating > 5 {
		return consensus.New(consensus.AcceptErrBase+23, consensus.ClassInvariant, "rating exceeds 5")
	}

	list := feedbackListForRole(existing, role)
	if len(list) >= types.MaxFeedbackPerRole {
		return consensus.New(consensus.AcceptErrBase+24, consensus.ClassInvariant, "feedback limit per role reached")
	}
	alreadyRated := len(list) > 0
	if alreadyRated {
		fb.Rating = 0 // only the first rating counts toward reputation (§4.6.3)
	}

	if mode == JustCheck {
		return nil
	}

	existing = existing.Clone()
	setFeedbackListForRole(existing, role, append(list, fb))
	if err := v.Store.PutAccept(existing); err != nil {
		return consensus.Wrap(consensus.AcceptErrBase+25, consensus.ClassStorageIO, "failed to persist feedback", err)
	}
	if !alreadyRated {
		if offer, ok := v.Store.GetOffer(existing.OfferGUID); ok {
			v.applyRating(fb, existing, offer)
		}
	}
	return nil
}

// applyRating aggregates fb into the rated alias's (sum, count) pair for
// the role fb.To names (§4.6.3). Buyer and seller resolve directly off the
// accept/offer; arbiter feedback on a plain purchase (no bound escrow) has
// no resolvable party and is skipped — escrow feedback is aggregated
// separately in checkEscrowCompleteFeedback/applyEscrowRating.
func (v *Validator) applyRating(fb types.Feedback, acc *types.Accept, offer *types.Offer) {
	var targetName string
	switch fb.To {
	case types.FeedbackBuyer:
		targetName = acc.BuyerAlias
	case types.FeedbackSeller:
		targetName = offer.Alias
	default:
		return
	}
	al, ok := v.Store.GetAliasByName(targetName)
	if !ok {
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
	}
	_ = v.Store.PutAlias(al)
}

func singleFeedback(acc *types.Accept) (types.Feedback, int, error) {
	// a purpose-built accept record constructed purely to carry one
	// feedback item stores it in whichever role list is non-empty
	for role, list := range map[int][]types.Feedback{
		types.FeedbackBuyer:   acc.FeedbackBuyer,
		types.FeedbackSeller:  acc.FeedbackSeller,
		types.FeedbackArbiter: acc.FeedbackArbiter,
	} {
		if len(list) == 1 {
			return list[0], role, nil
		}
	}
	return types.Feedback{}, 0, errNoFeedback
}

func feedbackListForRole(acc *types.Accept, role int) []types.Feedback {
	switch role {
	case types.FeedbackBuyer:
		return acc.FeedbackBuyer
	case types.FeedbackSeller:
		return acc.FeedbackSeller
	default:
		return acc.FeedbackArbiter
	}
}

func setFeedbackListForRole(acc *types.Accept, role int, list []types.Feedback) {
	switch role {
	case types.FeedbackBuyer:
		acc.FeedbackBuyer = list
	case types.FeedbackSeller:
		acc.FeedbackSeller = list
	default:
		acc.FeedbackArbiter = list
	}
}

var errNoFeedback = consensus.New(consensus.AcceptErrBase+26, consensus.ClassMalformed, "accept payload carries no single feedback item")

// payoutPresent reports whether tx pays at least want satoshis to the
// address derived from aliasName's stored public key (§4.6.3's merchant
// and affiliate payment checks).
func payoutPresent(tx *wire.MsgTx, v *Validator, aliasName string, want int64) bool {
	if want <= 0 {
		return true
	}
	al, ok := v.Store.GetAliasByName(aliasName)
	if !ok {
		return false
	}
	params := v.ChainParams
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(al.PubKey), params)
	if err != nil {
		return false
	}
	dest, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return false
	}
	for _, out := range tx.TxOut {
		if string(out.PkScript) == string(dest) && out.Value >= want {
			return true
		}
	}
	return false
}
