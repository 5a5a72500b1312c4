package store

import (
	"fmt"
	"sync"

	"github.com/syscoin/svcconsensus/pkg/types"
)

// key is the hex-encoded guid used as the map key for every service store,
// mirroring the ("namei"|"offeri"|"certi"|"escrowi"|"messagei", guidBytes)
// keyspace of §6.
func key(guid []byte) string { return fmt.Sprintf("%x", guid) }

// Memory is the default in-memory backend: five guid-keyed version lists
// plus the secondary address->alias index (§4.5). It implements Store and
// is the store cmd/svcd always wires into the validator and query layers;
// the Postgres backend does not implement Store.
type Memory struct {
	mu sync.RWMutex

	aliases  map[string][]*types.Alias
	offers   map[string][]*types.Offer
	accepts  map[string][]*types.Accept
	certs    map[string][]*types.Cert
	escrows  map[string][]*types.Escrow
	messages map[string][]*types.Message

	addressIndex map[string]string // hash160(pubkey) hex -> alias name
	nameIndex    map[string][]byte // alias name -> guid, every other service refers to aliases by name
}

func NewMemory() *Memory {
	return &Memory{
		aliases:      make(map[string][]*types.Alias),
		offers:       make(map[string][]*types.Offer),
		accepts:      make(map[string][]*types.Accept),
		certs:        make(map[string][]*types.Cert),
		escrows:      make(map[string][]*types.Escrow),
		messages:     make(map[string][]*types.Message),
		addressIndex: make(map[string]string),
		nameIndex:    make(map[string][]byte),
	}
}

func (m *Memory) PutAlias(a *types.Alias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(a.GUID)
	m.aliases[k] = PutToList(m.aliases[k], a)
	m.nameIndex[a.Name] = a.GUID
	return nil
}

func (m *Memory) GetAlias(guid []byte) (*types.Alias, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.aliases[key(guid)])
}

// GetAliasByName resolves the name index every other service record uses
// to reference an alias (offer.Alias, accept.BuyerAlias, escrow parties,
// message from/to) — the guid-keyed store is §6's on-disk key, but names
// are the external handle.
func (m *Memory) GetAliasByName(name string) (*types.Alias, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	guid, ok := m.nameIndex[name]
	if !ok {
		return nil, false
	}
	return Current(m.aliases[key(guid)])
}

func (m *Memory) AliasHistory(guid []byte) []*types.Alias {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.aliases[key(guid)]
	out := make([]*types.Alias, len(list))
	copy(out, list)
	return out
}

// AllAliases returns the current version of every alias in the store, for
// the regex/prefix scans of §4.9.
func (m *Memory) AllAliases() []*types.Alias {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Alias, 0, len(m.aliases))
	for _, list := range m.aliases {
		if cur, ok := Current(list); ok {
			out = append(out, cur)
		}
	}
	return out
}

// BindAddress records that addressHash160 resolves to aliasName, enforcing
// the invariant that no two aliases claim the same destination address
// (§8's "no other alias maps to the same address").
func (m *Memory) BindAddress(addressHash160 []byte, aliasName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%x", addressHash160)
	if existing, ok := m.addressIndex[k]; ok && existing != aliasName {
		return fmt.Errorf("store: address already bound to alias %q", existing)
	}
	m.addressIndex[k] = aliasName
	return nil
}

func (m *Memory) ResolveAddress(addressHash160 []byte) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.addressIndex[fmt.Sprintf("%x", addressHash160)]
	return name, ok
}

func (m *Memory) PutOffer(o *types.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(o.GUID)
	m.offers[k] = PutToList(m.offers[k], o)
	return nil
}

func (m *Memory) GetOffer(guid []byte) (*types.Offer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.offers[key(guid)])
}

func (m *Memory) OfferHistory(guid []byte) []*types.Offer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.offers[key(guid)]
	out := make([]*types.Offer, len(list))
	copy(out, list)
	return out
}

func (m *Memory) AllOffers() []*types.Offer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Offer, 0, len(m.offers))
	for _, list := range m.offers {
		if cur, ok := Current(list); ok {
			out = append(out, cur)
		}
	}
	return out
}

func (m *Memory) PutAccept(a *types.Accept) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(a.AcceptGUID)
	m.accepts[k] = PutToList(m.accepts[k], a)
	return nil
}

func (m *Memory) GetAccept(acceptGUID []byte) (*types.Accept, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.accepts[key(acceptGUID)])
}

// AcceptsForOffer returns every current accept record bound to offerGUID,
// used by the query layer's owner listing.
func (m *Memory) AcceptsForOffer(offerGUID []byte) []*types.Accept {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Accept
	for _, list := range m.accepts {
		cur, ok := Current(list)
		if !ok {
			continue
		}
		if fmt.Sprintf("%x", cur.OfferGUID) == fmt.Sprintf("%x", offerGUID) {
			out = append(out, cur)
		}
	}
	return out
}

func (m *Memory) PutCert(c *types.Cert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(c.GUID)
	m.certs[k] = PutToList(m.certs[k], c)
	return nil
}

func (m *Memory) GetCert(guid []byte) (*types.Cert, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.certs[key(guid)])
}

func (m *Memory) AllCerts() []*types.Cert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Cert, 0, len(m.certs))
	for _, list := range m.certs {
		if cur, ok := Current(list); ok {
			out = append(out, cur)
		}
	}
	return out
}

func (m *Memory) PutEscrow(e *types.Escrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(e.GUID)
	m.escrows[k] = PutToList(m.escrows[k], e)
	return nil
}

func (m *Memory) GetEscrow(guid []byte) (*types.Escrow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.escrows[key(guid)])
}

func (m *Memory) PutMessage(msg *types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(msg.GUID)
	m.messages[k] = PutToList(m.messages[k], msg)
	return nil
}

func (m *Memory) GetMessage(guid []byte) (*types.Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Current(m.messages[key(guid)])
}

func (m *Memory) MessageHistory(guid []byte) []*types.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.messages[key(guid)]
	out := make([]*types.Message, len(list))
	copy(out, list)
	return out
}
