package codec

import "github.com/syscoin/svcconsensus/pkg/types"

func EncodeCert(c *types.Cert) []byte {
	w := newWriter()
	w.bytes(c.GUID)
	w.str(c.Title)
	w.str(c.Category)
	w.bytes(c.Data)
	w.boolean(c.Private)
	w.str(c.Alias)
	w.str(c.LinkAlias)
	w.u8(c.SafetyLevel)
	return w.Bytes()
}

func DecodeCert(data []byte) (*types.Cert, error) {
	r := newReader(data)
	c := &types.Cert{}
	var err error
	if c.GUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if c.Title, err = r.str(); err != nil {
		return nil, err
	}
	if c.Category, err = r.str(); err != nil {
		return nil, err
	}
	if c.Data, err = r.bytes(); err != nil {
		return nil, err
	}
	if c.Private, err = r.boolean(); err != nil {
		return nil, err
	}
	if c.Alias, err = r.str(); err != nil {
		return nil, err
	}
	if c.LinkAlias, err = r.str(); err != nil {
		return nil, err
	}
	if c.SafetyLevel, err = r.u8(); err != nil {
		return nil, err
	}
	return c, nil
}
