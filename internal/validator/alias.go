package validator

import (
	"encoding/hex"
	"regexp"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/expiry"
	"github.com/syscoin/svcconsensus/internal/peg"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// nameRegex approximates §4.6.1's "domain regex (3-63 chars, LDH, TLD 2-6
// if present)": dot-separated LDH labels, an optional 2-6 letter TLD.
var nameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z]{2,6})?$`)

func validAliasName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	return nameRegex.MatchString(name)
}

func (v *Validator) checkAlias(tx *wire.MsgTx, d *txdecoder.Decoded, data *dataoutput.Found, prev *PrevOps, mode Mode) error {
	if len(data.Data) == 0 {
		// empty-data side channel: a bare authorization input for another
		// op, not a record of its own (§4.4). Nothing further to check here.
		return nil
	}
	rec, err := decodeDataAs(d.Op, data.Data)
	if err != nil {
		return consensus.Wrap(consensus.AliasErrBase+10, consensus.ClassMalformed, "malformed alias payload", err)
	}
	a, _ := rec.(*types.Alias)
	if a == nil {
		return consensus.New(consensus.AliasErrBase+10, consensus.ClassMalformed, "malformed alias payload")
	}

	special := types.IsSpecialAliasName(a.Name)
	if !special {
		if !validAliasName(a.Name) {
			return consensus.New(consensus.AliasErrBase+11, consensus.ClassMalformed, "alias name fails domain regex")
		}
	}
	if len(a.Name) > types.MaxNameLength {
		return consensus.New(consensus.AliasErrBase+12, consensus.ClassMalformed, "alias name exceeds MAX_NAME_LENGTH")
	}
	maxValue := types.MaxValueLength
	if special {
		maxValue = types.MaxValueLength * 4 // §4.6.1 "relaxed size limits"
	}
	if len(a.PublicValue) > maxValue || len(a.PrivateValue) > maxValue {
		return consensus.New(consensus.AliasErrBase+13, consensus.ClassMalformed, "alias value exceeds size bound")
	}
	if a.Renewal < 1 || a.Renewal > 5 {
		return consensus.New(consensus.AliasErrBase+14, consensus.ClassInvariant, "renewal out of range [1,5]")
	}
	if a.Height > v.Tip.Height() {
		return consensus.New(consensus.AliasErrBase+15, consensus.ClassInvariant, "alias height is in the future")
	}

	existing, hasExisting := v.Store.GetAlias(a.GUID)

	return v.applyAlias(tx, d, a, existing, hasExisting, special, prev, mode)
}

func (v *Validator) applyAlias(tx *wire.MsgTx, d *txdecoder.Decoded, a *types.Alias, existing *types.Alias, hasExisting bool, special bool, prev *PrevOps, mode Mode) error {
	isActivate := d.Op == script.AliasActivate
	if isActivate {
		if prior, ok := v.Store.GetAliasByName(a.Name); ok && !special {
			if !expiry.AliasExpired(prior, v.Tip.Height(), v.ExpirationDepth) {
				return consensus.New(consensus.AliasErrBase+16, consensus.ClassInvariant, "alias name already registered and not expired")
			}
		}
		if len(a.PrivateKey) != 0 {
			return consensus.New(consensus.AliasErrBase+17, consensus.ClassMalformed, "private-key field must be empty on activate")
		}
	} else {
		if !hasExisting {
			return skipOrReject(mode, consensus.AliasErrBase+18, "alias update with no prior record")
		}
		if prev.Alias != nil && len(prev.Alias.Vvch) >= 2 {
			if string(prev.Alias.Vvch[0]) != a.Name || string(prev.Alias.Vvch[1]) != string(a.GUID) {
				return consensus.New(consensus.AliasErrBase+22, consensus.ClassAuthorization, "previous alias input guid/name mismatch")
			}
		}
		// Rating, safety level, and guid are immutable post-creation;
		// overwrite with the stored values before committing (§4.6.1).
		a.RatingBuyer = existing.RatingBuyer
		a.RatingSeller = existing.RatingSeller
		a.RatingArbiter = existing.RatingArbiter
		a.SafetyLevel = existing.SafetyLevel
		a.GUID = existing.GUID

		// Transfer: public key changed. SPEC_FULL §4 item 3 calls for three
		// distinct sub-checks here, each its own violation, all reverting
		// the pubkey to the stored value rather than one generic rejection
		// (alias.cpp CheckAliasInputs). In connect mode the address
		// collision is a soft rollback: the update commits under the
		// stored pubkey instead of being rejected.
		if string(a.PubKey) != string(existing.PubKey) && len(a.PubKey) != 0 {
			addr := btcutil.Hash160(a.PubKey)
			if owner, ok := v.Store.ResolveAddress(addr); ok && owner != a.Name {
				// destination address already claimed by a different alias
				a.PubKey = existing.PubKey
				if mode == JustCheck {
					return consensus.New(consensus.AliasErrBase+19, consensus.ClassAuthorization, "alias transfer collides with another alias's address")
				}
			} else if len(a.PrivateKey) == 0 {
				a.PubKey = existing.PubKey
				return consensus.New(consensus.AliasErrBase+23, consensus.ClassAuthorization, "alias transfer missing private-key cipher")
			} else if string(a.PrivateKey) == string(existing.PrivateKey) {
				a.PubKey = existing.PubKey
				return consensus.New(consensus.AliasErrBase+24, consensus.ClassAuthorization, "alias transfer private-key cipher unchanged")
			}
		}
	}

	a.Height = v.Tip.Height()
	a.TxHash = tx.TxHash()

	if mode == JustCheck {
		return nil
	}

	if err := v.Store.PutAlias(a); err != nil {
		return consensus.Wrap(consensus.AliasErrBase+20, consensus.ClassStorageIO, "failed to persist alias", err)
	}
	if len(a.PubKey) != 0 {
		if err := v.Store.BindAddress(btcutil.Hash160(a.PubKey), a.Name); err != nil {
			return consensus.Wrap(consensus.AliasErrBase+21, consensus.ClassStorageIO, "failed to bind address index", err)
		}
	}
	if a.Name == types.AliasBan {
		v.propagateBan(a)
	}
	return nil
}

// propagateBan re-parses sysban's full public value and cascades
// safetyLevel to every listed alias/cert/offer, and to each banned
// offer's offerLinks children only (SPEC_FULL §4 item 2).
func (v *Validator) propagateBan(banAlias *types.Alias) {
	bl := peg.ParseBanList(banAlias.PublicValue)
	for _, e := range bl.Aliases {
		if al, ok := v.Store.GetAlias([]byte(e.ID)); ok {
			al = al.Clone()
			al.SafetyLevel = e.Severity
			_ = v.Store.PutAlias(al)
		}
	}
	for _, e := range bl.Certs {
		if c, ok := v.Store.GetCert([]byte(e.ID)); ok {
			c = c.Clone()
			c.SafetyLevel = e.Severity
			_ = v.Store.PutCert(c)
		}
	}
	for _, e := range bl.Offers {
		if o, ok := v.Store.GetOffer([]byte(e.ID)); ok {
			o = o.Clone()
			o.SafetyLevel = e.Severity
			_ = v.Store.PutOffer(o)
			for _, childGUID := range o.OfferLinks {
				g, err := hex.DecodeString(childGUID)
				if err != nil {
					continue
				}
				if child, ok := v.Store.GetOffer(g); ok {
					child = child.Clone()
					child.SafetyLevel = e.Severity
					_ = v.Store.PutOffer(child)
				}
			}
		}
	}
}
