package codec

import "github.com/syscoin/svcconsensus/pkg/types"

// EncodeAlias produces the canonical payload carried in the OP_RETURN output
// and hashed into the service script's commitment. Height/TxHash are chain
// metadata assigned when the record enters a store (§4.5) and are never
// part of the hashed payload.
func EncodeAlias(a *types.Alias) []byte {
	w := newWriter()
	w.str(a.Name)
	w.bytes(a.GUID)
	w.bytes(a.PubKey)
	w.bytes(a.PublicValue)
	w.bytes(a.PrivateValue)
	w.bytes(a.PrivateKey)
	w.u8(a.Renewal)
	w.u8(a.SafetyLevel)
	w.boolean(a.SafeSearch)
	w.i64(a.RatingBuyer.Sum)
	w.i64(a.RatingBuyer.Count)
	w.i64(a.RatingSeller.Sum)
	w.i64(a.RatingSeller.Count)
	w.i64(a.RatingArbiter.Sum)
	w.i64(a.RatingArbiter.Count)
	return w.Bytes()
}

func DecodeAlias(data []byte) (*types.Alias, error) {
	r := newReader(data)
	a := &types.Alias{}
	var err error
	if a.Name, err = r.str(); err != nil {
		return nil, err
	}
	if a.GUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.PubKey, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.PublicValue, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.PrivateValue, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.PrivateKey, err = r.bytes(); err != nil {
		return nil, err
	}
	if a.Renewal, err = r.u8(); err != nil {
		return nil, err
	}
	if a.SafetyLevel, err = r.u8(); err != nil {
		return nil, err
	}
	if a.SafeSearch, err = r.boolean(); err != nil {
		return nil, err
	}
	if a.RatingBuyer.Sum, err = r.i64(); err != nil {
		return nil, err
	}
	if a.RatingBuyer.Count, err = r.i64(); err != nil {
		return nil, err
	}
	if a.RatingSeller.Sum, err = r.i64(); err != nil {
		return nil, err
	}
	if a.RatingSeller.Count, err = r.i64(); err != nil {
		return nil, err
	}
	if a.RatingArbiter.Sum, err = r.i64(); err != nil {
		return nil, err
	}
	if a.RatingArbiter.Count, err = r.i64(); err != nil {
		return nil, err
	}
	return a, nil
}
