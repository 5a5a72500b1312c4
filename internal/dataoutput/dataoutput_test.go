package dataoutput

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/codec"
)

func buildOpReturn(t *testing.T, data []byte, commitment string) []byte {
	t.Helper()
	s, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(data).
		AddData([]byte(commitment)).
		Script()
	if err != nil {
		t.Fatalf("build op_return: %v", err)
	}
	return s
}

func TestExtractAndVerifyCommitment(t *testing.T) {
	payload := []byte("payload-bytes")
	commitment := codec.CommitmentHash(payload)

	tx := wire.NewMsgTx(1)
	tx.AddTxOut(wire.NewTxOut(2000000, buildOpReturn(t, payload, commitment)))

	found, err := Extract(tx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(found.Data) != string(payload) {
		t.Errorf("data = %q, want %q", found.Data, payload)
	}
	if !VerifyCommitment(found.Data, commitment) {
		t.Errorf("commitment did not verify")
	}
	if VerifyCommitment(found.Data, "deadbeef") {
		t.Errorf("commitment verified against wrong value")
	}
}

func TestVerifyFeeFloor(t *testing.T) {
	// small tx: the 0.02 COIN floor dominates
	if !VerifyFee(2000000, 200, 1000) {
		t.Errorf("expected 0.02 COIN floor to be satisfied by 2000000 sat")
	}
	if VerifyFee(1000000, 200, 1000) {
		t.Errorf("expected 1000000 sat to fall below the 0.02 COIN floor")
	}
}

func TestExtractNoOpReturn(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.AddTxOut(wire.NewTxOut(1000, []byte{txscript.OP_DUP, txscript.OP_HASH160}))
	if _, err := Extract(tx); err == nil {
		t.Errorf("expected no-OP_RETURN error")
	}
}
