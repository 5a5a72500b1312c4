package validator

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

func (v *Validator) checkCert(tx *wire.MsgTx, d *txdecoder.Decoded, data *dataoutput.Found, prev *PrevOps, mode Mode) error {
	rec, err := decodeDataAs(d.Op, data.Data)
	if err != nil {
		return consensus.Wrap(consensus.CertErrBase+1, consensus.ClassMalformed, "malformed certificate payload", err)
	}
	c, _ := rec.(*types.Cert)
	if c == nil {
		return consensus.New(consensus.CertErrBase+1, consensus.ClassMalformed, "malformed certificate payload")
	}

	if d.Op == script.CertActivate && c.Title == "" {
		return consensus.New(consensus.CertErrBase+2, consensus.ClassMalformed, "certificate title must be non-empty on activate")
	}
	if len(c.Title) > types.MaxNameLength {
		return consensus.New(consensus.CertErrBase+3, consensus.ClassMalformed, "certificate title exceeds MAX_NAME_LENGTH")
	}
	if len(c.Data) > types.MaxEncryptedValueLength {
		return consensus.New(consensus.CertErrBase+4, consensus.ClassMalformed, "certificate data exceeds MAX_ENCRYPTED_VALUE_LENGTH")
	}

	existing, hasExisting := v.Store.GetCert(c.GUID)

	if prev.Alias == nil {
		return consensus.New(consensus.CertErrBase+5, consensus.ClassAuthorization, "certificate op requires a previous alias input")
	}
	ownerAlias := c.Alias
	if hasExisting {
		ownerAlias = existing.Alias
	}
	if len(prev.Alias.Vvch) == 0 || string(prev.Alias.Vvch[0]) != ownerAlias {
		return consensus.New(consensus.CertErrBase+6, consensus.ClassAuthorization, "previous alias input does not match certificate owner")
	}

	switch d.Op {
	case script.CertActivate:
		if hasExisting {
			return consensus.New(consensus.CertErrBase+7, consensus.ClassInvariant, "certificate guid already in use")
		}
	case script.CertUpdate:
		if !hasExisting {
			return skipOrReject(mode, consensus.CertErrBase+8, "certificate update with no prior record")
		}
		c.Alias = existing.Alias
		c.SafetyLevel = existing.SafetyLevel
	case script.CertTransfer:
		if !hasExisting {
			return skipOrReject(mode, consensus.CertErrBase+9, "certificate transfer with no prior record")
		}
		c.SafetyLevel = existing.SafetyLevel
		// c.LinkAlias names the transfer target; commit replaces owner (§4.6.4)
		if c.LinkAlias == "" {
			return consensus.New(consensus.CertErrBase+10, consensus.ClassMalformed, "certificate transfer requires a link alias")
		}
		c.Alias = c.LinkAlias
	}

	c.Height = v.Tip.Height()
	c.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}
	if err := v.Store.PutCert(c); err != nil {
		return consensus.Wrap(consensus.CertErrBase+11, consensus.ClassStorageIO, "failed to persist certificate", err)
	}
	return nil
}
