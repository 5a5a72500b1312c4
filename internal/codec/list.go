package codec

import "github.com/syscoin/svcconsensus/pkg/types"

// encodeList writes a length-prefixed sequence of length-prefixed element
// blobs: the on-disk shape of a version list (§6 "Values are
// length-prefixed serializations of the version list").
func encodeList(elems [][]byte) []byte {
	w := newWriter()
	w.varint(uint64(len(elems)))
	for _, e := range elems {
		w.bytes(e)
	}
	return w.Bytes()
}

func decodeList(data []byte) ([][]byte, error) {
	r := newReader(data)
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		b, err := r.bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func EncodeAliasList(list []*types.Alias) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, a := range list {
		elems[i] = EncodeAlias(a)
	}
	return encodeList(elems), nil
}

func DecodeAliasList(data []byte) ([]*types.Alias, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Alias, len(elems))
	for i, e := range elems {
		a, err := DecodeAlias(e)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func EncodeOfferList(list []*types.Offer) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, o := range list {
		elems[i] = EncodeOffer(o)
	}
	return encodeList(elems), nil
}

func DecodeOfferList(data []byte) ([]*types.Offer, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Offer, len(elems))
	for i, e := range elems {
		o, err := DecodeOffer(e)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}

func EncodeAcceptList(list []*types.Accept) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, a := range list {
		elems[i] = EncodeAccept(a)
	}
	return encodeList(elems), nil
}

func DecodeAcceptList(data []byte) ([]*types.Accept, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Accept, len(elems))
	for i, e := range elems {
		a, err := DecodeAccept(e)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func EncodeCertList(list []*types.Cert) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, c := range list {
		elems[i] = EncodeCert(c)
	}
	return encodeList(elems), nil
}

func DecodeCertList(data []byte) ([]*types.Cert, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Cert, len(elems))
	for i, e := range elems {
		c, err := DecodeCert(e)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func EncodeEscrowList(list []*types.Escrow) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, e := range list {
		elems[i] = EncodeEscrow(e)
	}
	return encodeList(elems), nil
}

func DecodeEscrowList(data []byte) ([]*types.Escrow, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Escrow, len(elems))
	for i, e := range elems {
		v, err := DecodeEscrow(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func EncodeMessageList(list []*types.Message) ([]byte, error) {
	elems := make([][]byte, len(list))
	for i, m := range list {
		elems[i] = EncodeMessage(m)
	}
	return encodeList(elems), nil
}

func DecodeMessageList(data []byte) ([]*types.Message, error) {
	elems, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Message, len(elems))
	for i, e := range elems {
		m, err := DecodeMessage(e)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}
