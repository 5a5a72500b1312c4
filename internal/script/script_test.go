package script

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

func p2pkh(t *testing.T) []byte {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(bytes.Repeat([]byte{0x01}, 20), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	dest, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatalf("pay to addr script: %v", err)
	}
	return dest
}

func TestBuildParseAliasActivate(t *testing.T) {
	dest := p2pkh(t)
	vvch := [][]byte{[]byte("buyeralias"), []byte{0x01, 0x02}, []byte("abcd")}

	s, err := Build(AliasActivate, vvch, dest)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	op, gotVvch, gotDest, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op != AliasActivate {
		t.Errorf("op = %v, want AliasActivate", op)
	}
	if len(gotVvch) != 3 {
		t.Fatalf("vvch len = %d, want 3", len(gotVvch))
	}
	for i := range vvch {
		if !bytes.Equal(gotVvch[i], vvch[i]) {
			t.Errorf("vvch[%d] = %x, want %x", i, gotVvch[i], vvch[i])
		}
	}
	if !bytes.Equal(gotDest, dest) {
		t.Errorf("dest script = %x, want %x", gotDest, dest)
	}
}

func TestBuildParseOfferAccept(t *testing.T) {
	dest := p2pkh(t)
	vvch := [][]byte{[]byte("offerguid"), []byte("acceptguid"), []byte{0x00}, []byte("commit")}

	s, err := Build(OfferAccept, vvch, dest)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	op, gotVvch, _, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if op != OfferAccept {
		t.Errorf("op = %v, want OfferAccept", op)
	}
	if len(gotVvch) != 4 {
		t.Errorf("vvch len = %d, want 4", len(gotVvch))
	}
}

func TestBuildArityMismatch(t *testing.T) {
	_, err := Build(AliasActivate, [][]byte{[]byte("only one")}, p2pkh(t))
	if err == nil {
		t.Errorf("expected arity mismatch error")
	}
}
