package store

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syscoin/svcconsensus/pkg/types"
)

func TestPutToListReplacesOnMatchingHeight(t *testing.T) {
	var list []*types.Alias
	list = PutToList(list, &types.Alias{Name: "a", Height: 10})
	list = PutToList(list, &types.Alias{Name: "a-updated", Height: 10})

	if len(list) != 1 {
		t.Fatalf("expected idempotent replace, got %d entries", len(list))
	}
	if list[0].Name != "a-updated" {
		t.Errorf("expected replaced entry, got %+v", list[0])
	}
}

func TestPutToListReplacesOnMatchingTxHash(t *testing.T) {
	h := chainhash.Hash{0x01}
	var list []*types.Alias
	list = PutToList(list, &types.Alias{Name: "a", Height: 0, TxHash: h})
	list = PutToList(list, &types.Alias{Name: "a-reapplied", Height: 0, TxHash: h})

	if len(list) != 1 {
		t.Fatalf("expected replace on txHash match, got %d entries", len(list))
	}
}

func TestPutToListAppendsNewVersion(t *testing.T) {
	var list []*types.Alias
	list = PutToList(list, &types.Alias{Name: "a", Height: 10})
	list = PutToList(list, &types.Alias{Name: "a", Height: 20})

	if len(list) != 2 {
		t.Fatalf("expected append, got %d entries", len(list))
	}
	cur, ok := Current(list)
	if !ok || cur.Height != 20 {
		t.Errorf("expected current height 20, got %+v", cur)
	}
}

func TestMemoryAliasPutGet(t *testing.T) {
	m := NewMemory()
	guid := []byte{0x01, 0x02}
	if err := m.PutAlias(&types.Alias{Name: "buyeralias", GUID: guid, Height: 5}); err != nil {
		t.Fatalf("PutAlias: %v", err)
	}
	got, ok := m.GetAlias(guid)
	if !ok || got.Name != "buyeralias" {
		t.Errorf("GetAlias: got %+v, ok=%v", got, ok)
	}
}

func TestMemoryBindAddressRejectsCollision(t *testing.T) {
	m := NewMemory()
	addr := []byte{0xaa}
	if err := m.BindAddress(addr, "alias1"); err != nil {
		t.Fatalf("BindAddress: %v", err)
	}
	if err := m.BindAddress(addr, "alias2"); err == nil {
		t.Errorf("expected collision error binding the same address to a second alias")
	}
}
