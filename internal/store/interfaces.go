package store

import "github.com/syscoin/svcconsensus/pkg/types"

// The validator and query layers depend on these narrow interfaces rather
// than *Memory directly so tests can substitute fakes and so a future
// backend only needs to satisfy the methods actually used during
// validation (the Postgres backend in postgres.go does not implement
// these interfaces, and nothing writes confirmed state to it).

type AliasStore interface {
	PutAlias(a *types.Alias) error
	GetAlias(guid []byte) (*types.Alias, bool)
	GetAliasByName(name string) (*types.Alias, bool)
	AliasHistory(guid []byte) []*types.Alias
	AllAliases() []*types.Alias
	BindAddress(addressHash160 []byte, aliasName string) error
	ResolveAddress(addressHash160 []byte) (string, bool)
}

type OfferStore interface {
	PutOffer(o *types.Offer) error
	GetOffer(guid []byte) (*types.Offer, bool)
	OfferHistory(guid []byte) []*types.Offer
	AllOffers() []*types.Offer
	PutAccept(a *types.Accept) error
	GetAccept(acceptGUID []byte) (*types.Accept, bool)
	AcceptsForOffer(offerGUID []byte) []*types.Accept
}

type CertStore interface {
	PutCert(c *types.Cert) error
	GetCert(guid []byte) (*types.Cert, bool)
	AllCerts() []*types.Cert
}

type EscrowStore interface {
	PutEscrow(e *types.Escrow) error
	GetEscrow(guid []byte) (*types.Escrow, bool)
}

type MessageStore interface {
	PutMessage(m *types.Message) error
	GetMessage(guid []byte) (*types.Message, bool)
	MessageHistory(guid []byte) []*types.Message
}

// Store is the union every validator needs; *Memory satisfies it.
type Store interface {
	AliasStore
	OfferStore
	CertStore
	EscrowStore
	MessageStore
}
