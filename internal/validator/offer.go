package validator

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

func (v *Validator) checkOffer(tx *wire.MsgTx, d *txdecoder.Decoded, data *dataoutput.Found, prev *PrevOps, mode Mode) error {
	rec, err := decodeDataAs(d.Op, data.Data)
	if err != nil {
		return consensus.Wrap(consensus.OfferErrBase+1, consensus.ClassMalformed, "malformed offer payload", err)
	}
	o, _ := rec.(*types.Offer)
	if o == nil {
		return consensus.New(consensus.OfferErrBase+1, consensus.ClassMalformed, "malformed offer payload")
	}

	if o.Quantity < -1 {
		return consensus.New(consensus.OfferErrBase+2, consensus.ClassInvariant, "quantity below -1")
	}
	if o.Price <= 0 {
		return consensus.New(consensus.OfferErrBase+3, consensus.ClassInvariant, "price must be positive")
	}
	switch o.PaymentOptions {
	case types.PaymentOptionSYS, types.PaymentOptionBTC, types.PaymentOptionSYSBTC:
	default:
		return consensus.New(consensus.OfferErrBase+4, consensus.ClassMalformed, "payment option bitmask not in {1,2,3}")
	}
	if len(o.CertGUID) > 0 && o.Quantity != 1 {
		return consensus.New(consensus.OfferErrBase+5, consensus.ClassInvariant, "certificate-backed offer must have quantity 1")
	}

	isActivate := d.Op == script.OfferActivate
	existing, hasExisting := v.Store.GetOffer(o.GUID)

	var parent *types.Offer
	if o.IsLinked() {
		p, ok := v.Store.GetOffer(o.LinkOffer)
		if !ok {
			return skipOrReject(mode, consensus.OfferErrBase+6, "linked offer's parent not found")
		}
		if p.IsLinked() {
			return consensus.New(consensus.OfferErrBase+7, consensus.ClassInvariant, "cannot link to an already-linked offer")
		}
		if p.IsWanted() {
			return consensus.New(consensus.OfferErrBase+8, consensus.ClassInvariant, "cannot link to a wanted-category offer")
		}
		if p.WhitelistExclusive {
			if !inWhitelist(p.Whitelist, o.Alias) {
				return consensus.New(consensus.OfferErrBase+9, consensus.ClassAuthorization, "reseller alias not present in exclusive parent whitelist")
			}
			disc := whitelistDiscount(p.Whitelist, o.Alias)
			if int32(o.CommissionPct) < -disc {
				return consensus.New(consensus.OfferErrBase+10, consensus.ClassInvariant, "commission below negative of whitelist discount")
			}
		} else if o.CommissionPct < 0 {
			return consensus.New(consensus.OfferErrBase+11, consensus.ClassInvariant, "commission must be >= 0 outside exclusive whitelist")
		}
		// copied fields from parent (§4.6.2)
		o.Quantity = p.Quantity
		o.CertGUID = p.CertGUID
		o.AliasPeg = p.AliasPeg
		if p.PaymentOptions == types.PaymentOptionBTC {
			o.PaymentOptions = p.PaymentOptions
		}
		o.Price = p.Price
		if len(p.OfferLinks) >= types.MaxOfferChildren {
			return consensus.New(consensus.OfferErrBase+12, consensus.ClassInvariant, "parent offer child list full")
		}
	}

	if len(o.CertGUID) > 0 {
		cert, ok := v.Store.GetCert(o.CertGUID)
		if !ok {
			return skipOrReject(mode, consensus.OfferErrBase+13, "offer certificate not found")
		}
		ownerAlias := o.Alias
		if parent != nil {
			ownerAlias = parent.Alias
		}
		if cert.Alias != ownerAlias {
			return consensus.New(consensus.OfferErrBase+14, consensus.ClassAuthorization, "certificate owner does not match offer alias")
		}
	}

	if !isActivate {
		if !hasExisting {
			return skipOrReject(mode, consensus.OfferErrBase+15, "offer update with no prior record")
		}
		// immutable/preserved fields (§4.6.2 UPDATE bullet)
		o.OfferLinks = existing.OfferLinks
		o.LinkOffer = existing.LinkOffer
		o.GUID = existing.GUID
		o.Sold = existing.Sold
		o.SafetyLevel = existing.SafetyLevel
		o.Whitelist = existing.Whitelist
		if o.Title == "" {
			o.Title = existing.Title
		}
		if o.Description == "" {
			o.Description = existing.Description
		}
		if o.Category == "" {
			o.Category = existing.Category
		}
	}

	o.Height = v.Tip.Height()
	o.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}

	if err := v.Store.PutOffer(o); err != nil {
		return consensus.Wrap(consensus.OfferErrBase+16, consensus.ClassStorageIO, "failed to persist offer", err)
	}

	if !isActivate && o.IsLinked() {
		if p, ok := v.Store.GetOffer(o.LinkOffer); ok {
			propagateToSiblings(v, p, o)
		}
	} else if !isActivate {
		if cur, ok := v.Store.GetOffer(o.GUID); ok {
			propagateToChildren(v, cur)
		}
	}
	return nil
}

// propagateToChildren applies a non-link offer's price/quantity/currency/
// certificate/alias-peg/payment-option changes to every child in its
// offer-link list (§4.6.2 "Propagation").
func propagateToChildren(v *Validator, o *types.Offer) {
	for _, childGUID := range o.OfferLinks {
		g, err := hex.DecodeString(childGUID)
		if err != nil {
			continue
		}
		child, ok := v.Store.GetOffer(g)
		if !ok {
			continue
		}
		child = child.Clone()
		child.Price = o.Price
		child.Quantity = o.Quantity
		child.Currency = o.Currency
		child.CertGUID = o.CertGUID
		child.AliasPeg = o.AliasPeg
		if o.PaymentOptions == types.PaymentOptionBTC {
			child.PaymentOptions = o.PaymentOptions
		}
		_ = v.Store.PutOffer(child)
	}
}

func propagateToSiblings(v *Validator, parent *types.Offer, updated *types.Offer) {
	parent = parent.Clone()
	found := false
	for _, g := range parent.OfferLinks {
		if g == fmt.Sprintf("%x", updated.GUID) {
			found = true
		}
	}
	if !found {
		parent.OfferLinks = append(parent.OfferLinks, fmt.Sprintf("%x", updated.GUID))
		_ = v.Store.PutOffer(parent)
	}
}

func inWhitelist(wl []types.WhitelistEntry, alias string) bool {
	for _, e := range wl {
		if e.AliasName == alias {
			return true
		}
	}
	return false
}

func whitelistDiscount(wl []types.WhitelistEntry, alias string) int32 {
	for _, e := range wl {
		if e.AliasName == alias {
			return e.DiscountPct
		}
	}
	return 0
}
