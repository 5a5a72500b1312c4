package txdecoder

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/script"
)

func destScript(t *testing.T) []byte {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(bytes.Repeat([]byte{0x02}, 20), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	s, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatalf("pay to addr script: %v", err)
	}
	return s
}

func TestDecodeFindsServiceOutput(t *testing.T) {
	dest := destScript(t)
	svcScript, err := script.Build(script.AliasActivate, [][]byte{[]byte("name"), []byte("guid"), []byte("commit")}, dest)
	if err != nil {
		t.Fatalf("script.Build: %v", err)
	}

	tx := wire.NewMsgTx(ServiceTxVersion)
	tx.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_RETURN}))
	tx.AddTxOut(wire.NewTxOut(100000, svcScript))

	d, err := Decode(tx)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Op != script.AliasActivate {
		t.Errorf("op = %v, want AliasActivate", d.Op)
	}
	if d.VoutIndex != 1 {
		t.Errorf("vout index = %d, want 1", d.VoutIndex)
	}
	if !IsServiceVersion(tx) {
		t.Errorf("expected service version tx")
	}
}

func TestDecodeRejectsDuplicateServiceOutputs(t *testing.T) {
	dest := destScript(t)
	s1, _ := script.Build(script.AliasActivate, [][]byte{[]byte("name"), []byte("guid"), []byte("commit")}, dest)
	s2, _ := script.Build(script.AliasUpdate, [][]byte{[]byte("name"), []byte("guid"), []byte("commit")}, dest)

	tx := wire.NewMsgTx(ServiceTxVersion)
	tx.AddTxOut(wire.NewTxOut(100000, s1))
	tx.AddTxOut(wire.NewTxOut(100000, s2))

	if _, err := Decode(tx); err == nil {
		t.Errorf("expected duplicate service output error")
	}
}

func TestDecodeNoServiceOutput(t *testing.T) {
	tx := wire.NewMsgTx(ServiceTxVersion)
	tx.AddTxOut(wire.NewTxOut(100000, destScript(t)))
	if _, err := Decode(tx); err == nil {
		t.Errorf("expected no-service-output error")
	}
}
