// Package validator implements the consensus validator (C6): shared
// prelude plus per-service CheckXxxInputs, invoked once in JustCheck mode
// and once in connect mode per §4.6.
package validator

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/chainiface"
	"github.com/syscoin/svcconsensus/internal/codec"
	"github.com/syscoin/svcconsensus/internal/consensus"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/store"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
)

// Mode selects mempool-acceptance semantics (JustCheck) vs block-connection
// semantics (Connect); §4.6 "Mempool vs connect".
type Mode int

const (
	JustCheck Mode = iota
	Connect
)

// Validator holds the collaborators needed to check and, in Connect mode,
// apply a service transaction: the five stores (§4.5) and the chain-side
// views (§4.6's "Common prelude" walks vin through the UTXO cache).
type Validator struct {
	Store            store.Store
	UTXO             chainiface.UTXOView
	Tip              chainiface.ChainTip
	PendingAccepts   chainiface.PendingAcceptView
	ChainParams      *chaincfg.Params
	ActivationHeight uint32 // §4.6.0 SPEC_FULL item 3: all checks are a no-op before this height
	ExpirationDepth  uint32
	MinRelayFeePerKB  int64
}

// PrevOps is the classification of a transaction's inputs into at most one
// each of previous alias/offer/cert/escrow op, per the common prelude.
type PrevOps struct {
	Alias  *PrevOp
	Offer  *PrevOp
	Cert   *PrevOp
	Escrow *PrevOp
}

type PrevOp struct {
	Op   script.Op
	Vvch [][]byte
}

// Check runs the common prelude and dispatches to the op-specific
// validator. In JustCheck mode the validator never touches the store; only
// Connect mode mutates it.
func (v *Validator) Check(tx *wire.MsgTx, mode Mode) error {
	if IsCoinbase(tx) {
		return consensus.New(consensus.AliasErrBase, consensus.ClassMalformed, "coinbase transaction cannot carry a service output")
	}
	if !txdecoder.IsServiceVersion(tx) {
		return nil // not a service transaction; nothing for this validator to do
	}
	if v.ActivationHeight > 0 && v.Tip.Height() < v.ActivationHeight {
		return nil // SPEC_FULL §4 item 3: pre-activation, service validation is a no-op
	}

	decoded, err := txdecoder.Decode(tx)
	if err != nil {
		return consensus.Wrap(consensus.AliasErrBase+1, consensus.ClassMalformed, "no single service output found", err)
	}

	found, err := dataoutput.Extract(tx)
	if err != nil {
		return consensus.Wrap(consensus.AliasErrBase+2, consensus.ClassMalformed, "no single OP_RETURN data output found", err)
	}

	commitment := decoded.Vvch[len(decoded.Vvch)-1]
	// alias-update may push an empty commitment to indicate the empty-data
	// side channel used as an authorization input by other ops (§4.4).
	if decoded.Op != script.AliasUpdate || len(commitment) != 0 {
		if !dataoutput.VerifyCommitment(found.Data, string(commitment)) {
			return consensus.New(consensus.AliasErrBase+3, consensus.ClassMalformed, "data output commitment mismatch")
		}
	}

	if !dataoutput.VerifyFee(found.Amount, tx.SerializeSize(), v.MinRelayFeePerKB) {
		return consensus.New(consensus.AliasErrBase+4, consensus.ClassMalformed, "data output fee below storage cost floor")
	}

	prev, err := v.classifyPrevOps(tx)
	if err != nil {
		return err
	}

	switch decoded.Op {
	case script.AliasActivate, script.AliasUpdate:
		return v.checkAlias(tx, decoded, found, prev, mode)
	case script.OfferActivate, script.OfferUpdate:
		return v.checkOffer(tx, decoded, found, prev, mode)
	case script.OfferAccept:
		return v.checkAccept(tx, decoded, found, prev, mode)
	case script.CertActivate, script.CertUpdate, script.CertTransfer:
		return v.checkCert(tx, decoded, found, prev, mode)
	case script.EscrowActivate, script.EscrowRelease, script.EscrowRefund, script.EscrowComplete:
		return v.checkEscrow(tx, decoded, found, prev, mode)
	case script.MessageActivate:
		return v.checkMessage(tx, decoded, found, prev, mode)
	default:
		return consensus.New(consensus.AliasErrBase+5, consensus.ClassMalformed, fmt.Sprintf("unknown service op %d", decoded.Op))
	}
}

func IsCoinbase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prevOut := tx.TxIn[0].PreviousOutPoint
	return prevOut.Index == wire.MaxPrevOutIndex && prevOut.Hash == (chainhash.Hash{})
}

// classifyPrevOps walks vin once, consulting the UTXO view, and records at
// most one previous op per service kind (§4.6 "Common prelude"). A vin
// whose previous output is not in the view (already spent, or the view is
// a test fake with nothing loaded) is simply skipped — it is not itself a
// fault; the specific validators below decide whether a required prior op
// was found.
func (v *Validator) classifyPrevOps(tx *wire.MsgTx) (*PrevOps, error) {
	out := &PrevOps{}
	if v.UTXO == nil {
		return out, nil
	}
	for _, in := range tx.TxIn {
		prevOut, ok := v.UTXO.PrevOut(in.PreviousOutPoint)
		if !ok {
			continue
		}
		op, vvch, _, err := script.Parse(prevOut.PkScript)
		if err != nil {
			continue
		}
		p := &PrevOp{Op: op, Vvch: vvch}
		switch op {
		case script.AliasActivate, script.AliasUpdate:
			if out.Alias == nil {
				out.Alias = p
			}
		case script.OfferActivate, script.OfferUpdate, script.OfferAccept:
			if out.Offer == nil {
				out.Offer = p
			}
		case script.CertActivate, script.CertUpdate, script.CertTransfer:
			if out.Cert == nil {
				out.Cert = p
			}
		case script.EscrowActivate, script.EscrowRelease, script.EscrowRefund, script.EscrowComplete:
			if out.Escrow == nil {
				out.Escrow = p
			}
		}
	}
	return out, nil
}

// decodeDataAs is a small helper the per-service validators use to decode
// the OP_RETURN payload once the op has told them which record type to
// expect.
func decodeDataAs(op script.Op, data []byte) (any, error) {
	switch op {
	case script.AliasActivate, script.AliasUpdate:
		if len(data) == 0 {
			return nil, nil // empty-data side channel (§4.4)
		}
		return codec.DecodeAlias(data)
	case script.OfferActivate, script.OfferUpdate:
		return codec.DecodeOffer(data)
	case script.OfferAccept:
		return codec.DecodeAccept(data)
	case script.CertActivate, script.CertUpdate, script.CertTransfer:
		return codec.DecodeCert(data)
	case script.EscrowActivate, script.EscrowRelease, script.EscrowRefund, script.EscrowComplete:
		return codec.DecodeEscrow(data)
	case script.MessageActivate:
		return codec.DecodeMessage(data)
	default:
		return nil, fmt.Errorf("validator: no decoder for op %d", op)
	}
}

// skipOrReject implements §4.6's "Mempool vs connect" rule for a
// reference-missing condition: JustCheck rejects (transient mempool
// failure); connect mode logs and returns nil without mutating state, to
// tolerate block-order replays.
func skipOrReject(mode Mode, code int, msg string) error {
	if mode == JustCheck {
		return consensus.New(code, consensus.ClassReferenceMissing, msg)
	}
	return nil
}
