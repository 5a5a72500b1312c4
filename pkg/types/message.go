package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Message is an immutable alias-to-alias note (§3 Message). Unlike the other
// four record types it has no update op: every transaction creates a new
// message, never amends one.
type Message struct {
	GUID []byte

	FromAlias string
	ToAlias   string

	Subject string

	CipherToRecipient []byte // ciphertext readable by ToAlias
	CipherToSender    []byte // ciphertext readable by FromAlias, same plaintext

	Height uint32
	TxHash chainhash.Hash
}

func (m *Message) VersionKey() (uint32, chainhash.Hash) { return m.Height, m.TxHash }

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.GUID = append([]byte(nil), m.GUID...)
	cp.CipherToRecipient = append([]byte(nil), m.CipherToRecipient...)
	cp.CipherToSender = append([]byte(nil), m.CipherToSender...)
	return &cp
}
