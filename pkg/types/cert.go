package types

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Cert is a certificate record keyed by GUID (§3 Certificate).
type Cert struct {
	GUID []byte

	Title       string
	Category    string
	Data        []byte // ciphertext to current owner, <= MaxEncryptedValueLength
	Private     bool

	Alias     string // owner alias
	LinkAlias string // pending-transfer target alias, used only by transfer

	SafetyLevel uint8

	Height uint32
	TxHash chainhash.Hash
}

func (c *Cert) VersionKey() (uint32, chainhash.Hash) { return c.Height, c.TxHash }

func (c *Cert) Clone() *Cert {
	if c == nil {
		return nil
	}
	cp := *c
	cp.GUID = append([]byte(nil), c.GUID...)
	cp.Data = append([]byte(nil), c.Data...)
	return &cp
}
