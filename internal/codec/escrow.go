package codec

import "github.com/syscoin/svcconsensus/pkg/types"

func EncodeEscrow(e *types.Escrow) []byte {
	w := newWriter()
	w.bytes(e.GUID)
	w.str(e.BuyerAlias)
	w.str(e.SellerAlias)
	w.str(e.ArbiterAlias)
	w.bytes(e.OfferGUID)
	w.i64(e.Quantity)
	w.bytes(e.PayMessage)
	w.bytes(e.RedeemScript)
	w.str(e.BTCFundingTxHex)
	w.str(e.RawTx)
	w.varint(uint64(e.Op))
	w.varint(uint64(e.AcceptHeight))
	w.i64(e.PinnedPrice)
	w.str(e.AffiliateAlias)
	w.i64(e.PinnedCommission)
	encodeFeedback(w, e.FeedbackBuyer)
	encodeFeedback(w, e.FeedbackSeller)
	encodeFeedback(w, e.FeedbackArbiter)
	return w.Bytes()
}

func DecodeEscrow(data []byte) (*types.Escrow, error) {
	r := newReader(data)
	e := &types.Escrow{}
	var err error
	if e.GUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if e.BuyerAlias, err = r.str(); err != nil {
		return nil, err
	}
	if e.SellerAlias, err = r.str(); err != nil {
		return nil, err
	}
	if e.ArbiterAlias, err = r.str(); err != nil {
		return nil, err
	}
	if e.OfferGUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if e.Quantity, err = r.i64(); err != nil {
		return nil, err
	}
	if e.PayMessage, err = r.bytes(); err != nil {
		return nil, err
	}
	if e.RedeemScript, err = r.bytes(); err != nil {
		return nil, err
	}
	if e.BTCFundingTxHex, err = r.str(); err != nil {
		return nil, err
	}
	if e.RawTx, err = r.str(); err != nil {
		return nil, err
	}
	op, err := r.varint()
	if err != nil {
		return nil, err
	}
	e.Op = int(op)
	h, err := r.varint()
	if err != nil {
		return nil, err
	}
	e.AcceptHeight = uint32(h)
	if e.PinnedPrice, err = r.i64(); err != nil {
		return nil, err
	}
	if e.AffiliateAlias, err = r.str(); err != nil {
		return nil, err
	}
	if e.PinnedCommission, err = r.i64(); err != nil {
		return nil, err
	}
	if e.FeedbackBuyer, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	if e.FeedbackSeller, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	if e.FeedbackArbiter, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	return e, nil
}
