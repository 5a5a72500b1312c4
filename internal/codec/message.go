package codec

import "github.com/syscoin/svcconsensus/pkg/types"

func EncodeMessage(m *types.Message) []byte {
	w := newWriter()
	w.bytes(m.GUID)
	w.str(m.FromAlias)
	w.str(m.ToAlias)
	w.str(m.Subject)
	w.bytes(m.CipherToRecipient)
	w.bytes(m.CipherToSender)
	return w.Bytes()
}

func DecodeMessage(data []byte) (*types.Message, error) {
	r := newReader(data)
	m := &types.Message{}
	var err error
	if m.GUID, err = r.bytes(); err != nil {
		return nil, err
	}
	if m.FromAlias, err = r.str(); err != nil {
		return nil, err
	}
	if m.ToAlias, err = r.str(); err != nil {
		return nil, err
	}
	if m.Subject, err = r.str(); err != nil {
		return nil, err
	}
	if m.CipherToRecipient, err = r.bytes(); err != nil {
		return nil, err
	}
	if m.CipherToSender, err = r.bytes(); err != nil {
		return nil, err
	}
	return m, nil
}
