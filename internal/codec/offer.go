package codec

import "github.com/syscoin/svcconsensus/pkg/types"

func EncodeOffer(o *types.Offer) []byte {
	w := newWriter()
	w.bytes(o.GUID)
	w.str(o.Alias)
	w.str(o.Title)
	w.str(o.Category)
	w.str(o.Description)
	w.str(o.Currency)
	w.str(o.AliasPeg)
	w.i64(o.Price)
	w.i64(o.Quantity)
	w.i64(o.Sold)
	w.varint(uint64(int64(o.CommissionPct) + 1<<20)) // bias to keep varint unsigned; see DecodeOffer
	w.bytes(o.LinkOffer)
	w.bytes(o.CertGUID)
	w.u8(o.PaymentOptions)
	w.boolean(o.Private)
	w.u8(o.SafetyLevel)
	w.boolean(o.SafeSearch)
	w.varint(uint64(len(o.Whitelist)))
	for _, wl := range o.Whitelist {
		w.str(wl.AliasName)
		w.varint(uint64(int64(wl.DiscountPct) + 1<<20))
	}
	w.boolean(o.WhitelistExclusive)
	w.varint(uint64(len(o.OfferLinks)))
	for _, l := range o.OfferLinks {
		w.str(l)
	}
	return w.Bytes()
}

// commissionBias keeps the signed -90..100 commission/discount range (§6)
// representable as a wire.VarInt without a dedicated signed encoding.
const commissionBias = 1 << 20

func DecodeOffer(data []byte) (*types.Offer, error) {
	r := newReader(data)
	o := &types.Offer{}
	var err error
	if o.GUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if o.Alias, err = r.str(); err != nil {
		return nil, err
	}
	if o.Title, err = r.str(); err != nil {
		return nil, err
	}
	if o.Category, err = r.str(); err != nil {
		return nil, err
	}
	if o.Description, err = r.str(); err != nil {
		return nil, err
	}
	if o.Currency, err = r.str(); err != nil {
		return nil, err
	}
	if o.AliasPeg, err = r.str(); err != nil {
		return nil, err
	}
	if o.Price, err = r.i64(); err != nil {
		return nil, err
	}
	if o.Quantity, err = r.i64(); err != nil {
		return nil, err
	}
	if o.Sold, err = r.i64(); err != nil {
		return nil, err
	}
	cp, err := r.varint()
	if err != nil {
		return nil, err
	}
	o.CommissionPct = int32(int64(cp) - commissionBias)
	if o.LinkOffer, err = r.bytes(); err != nil {
		return nil, err
	}
	if o.CertGUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if o.PaymentOptions, err = r.u8(); err != nil {
		return nil, err
	}
	if o.Private, err = r.boolean(); err != nil {
		return nil, err
	}
	if o.SafetyLevel, err = r.u8(); err != nil {
		return nil, err
	}
	if o.SafeSearch, err = r.boolean(); err != nil {
		return nil, err
	}
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	o.Whitelist = make([]types.WhitelistEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		var wl types.WhitelistEntry
		if wl.AliasName, err = r.str(); err != nil {
			return nil, err
		}
		dp, err := r.varint()
		if err != nil {
			return nil, err
		}
		wl.DiscountPct = int32(int64(dp) - commissionBias)
		o.Whitelist = append(o.Whitelist, wl)
	}
	if o.WhitelistExclusive, err = r.boolean(); err != nil {
		return nil, err
	}
	n, err = r.varint()
	if err != nil {
		return nil, err
	}
	o.OfferLinks = make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		o.OfferLinks = append(o.OfferLinks, s)
	}
	return o, nil
}

func EncodeAccept(a *types.Accept) []byte {
	w := newWriter()
	w.bytes(a.OfferGUID)
	w.bytes(a.AcceptGUID)
	w.str(a.BuyerAlias)
	w.i64(a.Quantity)
	w.varint(uint64(a.AcceptHeight))
	w.i64(a.BuyerPrice)
	w.i64(a.Commission)
	w.str(a.BTCTxID)
	encodeFeedback(w, a.FeedbackBuyer)
	encodeFeedback(w, a.FeedbackSeller)
	encodeFeedback(w, a.FeedbackArbiter)
	return w.Bytes()
}

func DecodeAccept(data []byte) (*types.Accept, error) {
	r := newReader(data)
	a := &types.Accept{}
	var err error
	if a.OfferGUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.AcceptGUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.BuyerAlias, err = r.str(); err != nil {
		return nil, err
	}
	if a.Quantity, err = r.i64(); err != nil {
		return nil, err
	}
	h, err := r.varint()
	if err != nil {
		return nil, err
	}
	a.AcceptHeight = uint32(h)
	if a.BuyerPrice, err = r.i64(); err != nil {
		return nil, err
	}
	if a.Commission, err = r.i64(); err != nil {
		return nil, err
	}
	if a.BTCTxID, err = r.str(); err != nil {
		return nil, err
	}
	if a.FeedbackBuyer, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	if a.FeedbackSeller, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	if a.FeedbackArbiter, err = decodeFeedback(r); err != nil {
		return nil, err
	}
	return a, nil
}

func encodeFeedback(w *writer, fb []types.Feedback) {
	w.varint(uint64(len(fb)))
	for _, f := range fb {
		w.varint(uint64(f.From))
		w.varint(uint64(f.To))
		w.u8(f.Rating)
		w.str(f.Text)
	}
}

func decodeFeedback(r *reader) ([]types.Feedback, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	out := make([]types.Feedback, 0, n)
	for i := uint64(0); i < n; i++ {
		var f types.Feedback
		from, err := r.varint()
		if err != nil {
			return nil, err
		}
		to, err := r.varint()
		if err != nil {
			return nil, err
		}
		f.From, f.To = int(from), int(to)
		if f.Rating, err = r.u8(); err != nil {
			return nil, err
		}
		if f.Text, err = r.str(); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
