package validator

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/syscoin/svcconsensus/internal/codec"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/sideeffect"
	"github.com/syscoin/svcconsensus/internal/store"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/pkg/types"
)

type fakeUTXO map[wire.OutPoint]*wire.TxOut

func (f fakeUTXO) PrevOut(op wire.OutPoint) (*wire.TxOut, bool) { o, ok := f[op]; return o, ok }

type fakeTip uint32

func (f fakeTip) Height() uint32 { return uint32(f) }

func p2pkhScript(t *testing.T, pubkey []byte) []byte {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubkey), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	s, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatalf("pay to addr script: %v", err)
	}
	return s
}

func destScript(t *testing.T) []byte {
	t.Helper()
	return p2pkhScript(t, bytes.Repeat([]byte{0x09}, 33))
}

// newValidator returns a fresh in-memory-backed validator at the given tip.
func newValidator(height uint32) (*Validator, *store.Memory) {
	mem := store.NewMemory()
	v := &Validator{
		Store:            mem,
		UTXO:             fakeUTXO{},
		Tip:              fakeTip(height),
		ChainParams:      &chaincfg.MainNetParams,
		ExpirationDepth:  1440,
		MinRelayFeePerKB: 1000,
	}
	return v, mem
}

// buildServiceTx assembles a transaction carrying one service output (built
// from op/vvchPrefix with the OP_RETURN payload's commitment appended) and
// one OP_RETURN data output, plus any extraOuts (payment outputs). A single
// non-service txin anchors it as non-coinbase.
func buildServiceTx(t *testing.T, op script.Op, vvchPrefix [][]byte, payload []byte, extraOuts ...*wire.TxOut) *wire.MsgTx {
	t.Helper()
	commitment := codec.CommitmentHash(payload)
	vvch := append(append([][]byte{}, vvchPrefix...), []byte(commitment))

	svcScript, err := script.Build(op, vvch, destScript(t))
	if err != nil {
		t.Fatalf("script.Build: %v", err)
	}
	opReturn, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload).
		AddData([]byte(commitment)).
		Script()
	if err != nil {
		t.Fatalf("build op_return: %v", err)
	}

	tx := wire.NewMsgTx(txdecoder.ServiceTxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0xaa}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(2000000, opReturn))
	tx.AddTxOut(wire.NewTxOut(0, svcScript))
	for _, o := range extraOuts {
		tx.AddTxOut(o)
	}
	return tx
}

// withPrevAliasInput rewires tx's first input to point at a fake UTXO entry
// carrying a previous alias op, so classifyPrevOps reports prev.Alias.
func withPrevAliasInput(t *testing.T, v *Validator, tx *wire.MsgTx, aliasName string, aliasGUID []byte) {
	t.Helper()
	outpoint := wire.OutPoint{Hash: chainhash.Hash{0xbb}, Index: 0}
	s, err := script.Build(script.AliasUpdate, [][]byte{[]byte(aliasName), aliasGUID, []byte("x")}, destScript(t))
	if err != nil {
		t.Fatalf("script.Build: %v", err)
	}
	v.UTXO.(fakeUTXO)[outpoint] = wire.NewTxOut(0, s)
	tx.TxIn[0].PreviousOutPoint = outpoint
}

func TestAliasActivateConnect(t *testing.T) {
	v, mem := newValidator(100)
	a := &types.Alias{Name: "alice", GUID: []byte{0x01}, PubKey: bytes.Repeat([]byte{0x03}, 33), Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasActivate, [][]byte{[]byte(a.Name), a.GUID}, payload)

	if err := v.Check(tx, JustCheck); err != nil {
		t.Fatalf("JustCheck: %v", err)
	}
	if _, ok := mem.GetAlias(a.GUID); ok {
		t.Fatalf("JustCheck must not mutate the store")
	}
	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	got, ok := mem.GetAlias(a.GUID)
	if !ok {
		t.Fatalf("alias not persisted")
	}
	if got.Name != "alice" {
		t.Errorf("name = %q, want alice", got.Name)
	}
	if _, ok := mem.GetAliasByName("alice"); !ok {
		t.Errorf("name index not populated")
	}
}

func TestAliasActivateRejectsBadName(t *testing.T) {
	v, _ := newValidator(100)
	a := &types.Alias{Name: "!!", GUID: []byte{0x02}, Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasActivate, [][]byte{[]byte(a.Name), a.GUID}, payload)
	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected name regex rejection")
	}
}

func TestAliasActivateRejectsDuplicateUnexpired(t *testing.T) {
	v, mem := newValidator(100)
	existing := &types.Alias{Name: "bob", GUID: []byte{0x03}, Renewal: 1, Height: 90}
	if err := mem.PutAlias(existing); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := &types.Alias{Name: "bob", GUID: []byte{0x03}, Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasActivate, [][]byte{[]byte(a.Name), a.GUID}, payload)
	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected rejection of re-activating an unexpired alias")
	}
}

func seedAlias(t *testing.T, v *Validator, mem *store.Memory, name string, guid byte, pubkey []byte) *types.Alias {
	t.Helper()
	a := &types.Alias{Name: name, GUID: []byte{guid}, PubKey: pubkey, Renewal: 1, Height: v.Tip.Height()}
	if err := mem.PutAlias(a); err != nil {
		t.Fatalf("seed alias %s: %v", name, err)
	}
	if err := mem.BindAddress(btcutil.Hash160(pubkey), name); err != nil {
		t.Fatalf("bind address: %v", err)
	}
	return a
}

func TestOfferActivateAndAcceptPurchase(t *testing.T) {
	v, mem := newValidator(100)
	merchantKey := bytes.Repeat([]byte{0x11}, 33)
	seedAlias(t, v, mem, "merchant", 0x10, merchantKey)

	o := &types.Offer{GUID: []byte{0x20}, Alias: "merchant", Price: 1000, Quantity: 5, PaymentOptions: types.PaymentOptionSYS}
	offerPayload := codec.EncodeOffer(o)
	offerTx := buildServiceTx(t, script.OfferActivate, [][]byte{o.GUID}, offerPayload)
	if err := v.Check(offerTx, Connect); err != nil {
		t.Fatalf("offer activate: %v", err)
	}

	merchantDest := p2pkhScript(t, merchantKey)
	acc := &types.Accept{OfferGUID: o.GUID, AcceptGUID: []byte{0x30}, BuyerAlias: "carol", Quantity: 2}
	acceptPayload := codec.EncodeAccept(acc)
	acceptTx := buildServiceTx(t, script.OfferAccept,
		[][]byte{o.GUID, acc.AcceptGUID, []byte("0")},
		acceptPayload,
		wire.NewTxOut(2000, merchantDest), // 1000 * 2
	)
	if err := v.Check(acceptTx, JustCheck); err != nil {
		t.Fatalf("accept JustCheck: %v", err)
	}
	if err := v.Check(acceptTx, Connect); err != nil {
		t.Fatalf("accept Connect: %v", err)
	}

	updated, ok := mem.GetOffer(o.GUID)
	if !ok {
		t.Fatalf("offer missing after accept")
	}
	if updated.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", updated.Quantity)
	}
	if updated.Sold != 2 {
		t.Errorf("sold = %d, want 2", updated.Sold)
	}
	storedAcc, ok := mem.GetAccept(acc.AcceptGUID)
	if !ok {
		t.Fatalf("accept not persisted")
	}
	if storedAcc.BuyerPrice != 1000 {
		t.Errorf("buyer price = %d, want 1000", storedAcc.BuyerPrice)
	}
}

func TestOfferAcceptRejectsMissingPayment(t *testing.T) {
	v, mem := newValidator(100)
	merchantKey := bytes.Repeat([]byte{0x12}, 33)
	seedAlias(t, v, mem, "merchant2", 0x11, merchantKey)

	o := &types.Offer{GUID: []byte{0x21}, Alias: "merchant2", Price: 1000, Quantity: 5, PaymentOptions: types.PaymentOptionSYS}
	if err := mem.PutOffer(o); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	acc := &types.Accept{OfferGUID: o.GUID, AcceptGUID: []byte{0x31}, BuyerAlias: "carol", Quantity: 1}
	acceptPayload := codec.EncodeAccept(acc)
	acceptTx := buildServiceTx(t, script.OfferAccept, [][]byte{o.GUID, acc.AcceptGUID, []byte("0")}, acceptPayload)
	if err := v.Check(acceptTx, JustCheck); err == nil {
		t.Errorf("expected rejection for missing merchant payment output")
	}
}

func TestCertActivateAndTransfer(t *testing.T) {
	v, mem := newValidator(50)
	c := &types.Cert{GUID: []byte{0x40}, Title: "deed", Alias: "owner"}
	payload := codec.EncodeCert(c)
	tx := buildServiceTx(t, script.CertActivate, [][]byte{c.GUID}, payload)
	withPrevAliasInput(t, v, tx, "owner", []byte{0x41})

	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("cert activate: %v", err)
	}

	transfer := &types.Cert{GUID: c.GUID, Title: "deed", LinkAlias: "newowner"}
	tpayload := codec.EncodeCert(transfer)
	ttx := buildServiceTx(t, script.CertTransfer, [][]byte{c.GUID}, tpayload)
	withPrevAliasInput(t, v, ttx, "owner", []byte{0x41})

	if err := v.Check(ttx, Connect); err != nil {
		t.Fatalf("cert transfer: %v", err)
	}
	got, ok := mem.GetCert(c.GUID)
	if !ok {
		t.Fatalf("cert missing")
	}
	if got.Alias != "newowner" {
		t.Errorf("alias = %q, want newowner", got.Alias)
	}
}

func TestCertActivateRejectsWrongOwnerInput(t *testing.T) {
	v, _ := newValidator(50)
	c := &types.Cert{GUID: []byte{0x42}, Title: "deed", Alias: "owner"}
	payload := codec.EncodeCert(c)
	tx := buildServiceTx(t, script.CertActivate, [][]byte{c.GUID}, payload)
	withPrevAliasInput(t, v, tx, "someoneelse", []byte{0x43})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected authorization failure on mismatched owner alias input")
	}
}

func TestMessageActivateRequiresSenderAuthorization(t *testing.T) {
	v, mem := newValidator(10)
	seedAlias(t, v, mem, "recipient", 0x50, bytes.Repeat([]byte{0x21}, 33))

	m := &types.Message{GUID: []byte{0x51}, FromAlias: "sender", ToAlias: "recipient", Subject: "hi"}
	payload := codec.EncodeMessage(m)
	tx := buildServiceTx(t, script.MessageActivate, [][]byte{m.GUID}, payload)

	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected rejection with no prior alias input")
	}

	withPrevAliasInput(t, v, tx, "sender", []byte{0x52})
	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("message activate: %v", err)
	}
	if _, ok := mem.GetMessage(m.GUID); !ok {
		t.Errorf("message not persisted")
	}
}

func TestEscrowActivateDeductsOfferQuantity(t *testing.T) {
	v, mem := newValidator(200)
	seedAlias(t, v, mem, "buyer", 0x60, bytes.Repeat([]byte{0x31}, 33))
	seedAlias(t, v, mem, "seller", 0x61, bytes.Repeat([]byte{0x32}, 33))
	seedAlias(t, v, mem, "arbiter", 0x62, bytes.Repeat([]byte{0x33}, 33))

	o := &types.Offer{GUID: []byte{0x70}, Alias: "seller", Price: 500, Quantity: 10}
	if err := mem.PutOffer(o); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	e := &types.Escrow{
		GUID: []byte{0x71}, BuyerAlias: "buyer", SellerAlias: "seller", ArbiterAlias: "arbiter",
		OfferGUID: o.GUID, Quantity: 3, RedeemScript: []byte{0x01, 0x02},
	}
	payload := codec.EncodeEscrow(e)
	tx := buildServiceTx(t, script.EscrowActivate, [][]byte{e.GUID, []byte("0")}, payload)

	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("escrow activate: %v", err)
	}
	updatedOffer, ok := mem.GetOffer(o.GUID)
	if !ok || updatedOffer.Quantity != 7 {
		t.Fatalf("offer quantity after escrow = %v, want 7", updatedOffer)
	}
	storedEscrow, ok := mem.GetEscrow(e.GUID)
	if !ok {
		t.Fatalf("escrow not persisted")
	}
	if storedEscrow.Op != types.EscrowActivate {
		t.Errorf("escrow op = %d, want EscrowActivate", storedEscrow.Op)
	}
	if storedEscrow.PinnedPrice != 500 {
		t.Errorf("pinned price = %d, want 500", storedEscrow.PinnedPrice)
	}
}

func TestEscrowReleaseRequiresBuyerOrArbiter(t *testing.T) {
	v, mem := newValidator(200)
	seedAlias(t, v, mem, "buyer2", 0x63, bytes.Repeat([]byte{0x34}, 33))
	seedAlias(t, v, mem, "seller2", 0x64, bytes.Repeat([]byte{0x35}, 33))
	seedAlias(t, v, mem, "arbiter2", 0x65, bytes.Repeat([]byte{0x36}, 33))
	existing := &types.Escrow{
		GUID: []byte{0x72}, BuyerAlias: "buyer2", SellerAlias: "seller2", ArbiterAlias: "arbiter2",
		OfferGUID: []byte{0x73}, Quantity: 1, Op: types.EscrowActivate,
	}
	if err := mem.PutEscrow(existing); err != nil {
		t.Fatalf("seed escrow: %v", err)
	}

	e := &types.Escrow{GUID: existing.GUID}
	payload := codec.EncodeEscrow(e)
	tx := buildServiceTx(t, script.EscrowRelease, [][]byte{e.GUID, []byte("0")}, payload)
	withPrevAliasInput(t, v, tx, "seller2", []byte{0x74})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected rejection: release must be authorized by buyer or arbiter")
	}
}

func TestAliasTransferRequiresFreshPrivateKey(t *testing.T) {
	v, mem := newValidator(100)
	oldKey := bytes.Repeat([]byte{0x41}, 33)
	newKey := bytes.Repeat([]byte{0x42}, 33)
	existing := seedAlias(t, v, mem, "dave", 0x50, oldKey)
	existing.PrivateValue = []byte("old-cipher")
	if err := mem.PutAlias(existing); err != nil {
		t.Fatalf("reseed with private value: %v", err)
	}

	a := &types.Alias{Name: "dave", GUID: []byte{0x50}, PubKey: newKey, Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasUpdate, [][]byte{[]byte(a.Name), a.GUID}, payload)
	withPrevAliasInput(t, v, tx, "dave", []byte{0x50})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Fatalf("expected rejection: transfer with no private-key cipher")
	}
}

func TestAliasTransferRequiresChangedPrivateKey(t *testing.T) {
	v, mem := newValidator(100)
	oldKey := bytes.Repeat([]byte{0x43}, 33)
	newKey := bytes.Repeat([]byte{0x44}, 33)
	existing := seedAlias(t, v, mem, "erin", 0x51, oldKey)
	existing.PrivateKey = []byte("same-cipher")
	if err := mem.PutAlias(existing); err != nil {
		t.Fatalf("reseed with private key: %v", err)
	}

	a := &types.Alias{Name: "erin", GUID: []byte{0x51}, PubKey: newKey, PrivateKey: []byte("same-cipher"), Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasUpdate, [][]byte{[]byte(a.Name), a.GUID}, payload)
	withPrevAliasInput(t, v, tx, "erin", []byte{0x51})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Fatalf("expected rejection: private-key cipher unchanged")
	}
}

func TestAliasTransferRejectsAddressCollision(t *testing.T) {
	v, mem := newValidator(100)
	frankKey := bytes.Repeat([]byte{0x45}, 33)
	grahamKey := bytes.Repeat([]byte{0x46}, 33)
	seedAlias(t, v, mem, "frank", 0x52, frankKey)
	seedAlias(t, v, mem, "graham", 0x53, grahamKey)

	// graham attempts to transfer to frank's already-bound address.
	a := &types.Alias{Name: "graham", GUID: []byte{0x53}, PubKey: frankKey, PrivateKey: []byte("fresh-cipher"), Renewal: 1}
	payload := codec.EncodeAlias(a)
	tx := buildServiceTx(t, script.AliasUpdate, [][]byte{[]byte(a.Name), a.GUID}, payload)
	withPrevAliasInput(t, v, tx, "graham", []byte{0x53})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Fatalf("expected rejection: transfer collides with frank's address")
	}
}

func TestEscrowCompleteReleasePaysSellerAndArbiter(t *testing.T) {
	v, mem := newValidator(200)
	sellerKey := bytes.Repeat([]byte{0x47}, 33)
	seedAlias(t, v, mem, "seller3", 0x66, sellerKey)
	arbiterKey := bytes.Repeat([]byte{0x48}, 33)
	seedAlias(t, v, mem, "arbiter3", 0x67, arbiterKey)
	seedAlias(t, v, mem, "buyer3", 0x68, bytes.Repeat([]byte{0x49}, 33))

	const price, qty = int64(10000), int64(2)
	want := price * qty
	fee := sideeffect.ArbiterFee(want, v.MinRelayFeePerKB)

	existing := &types.Escrow{
		GUID: []byte{0x75}, BuyerAlias: "buyer3", SellerAlias: "seller3", ArbiterAlias: "arbiter3",
		OfferGUID: []byte{0x76}, Quantity: qty, PinnedPrice: price, Op: types.EscrowRelease,
	}
	if err := mem.PutEscrow(existing); err != nil {
		t.Fatalf("seed escrow: %v", err)
	}

	sellerAddr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(sellerKey), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("seller address: %v", err)
	}
	sellerScript, err := txscript.PayToAddrScript(sellerAddr)
	if err != nil {
		t.Fatalf("seller script: %v", err)
	}
	arbiterAddr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(arbiterKey), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("arbiter address: %v", err)
	}
	arbiterScript, err := txscript.PayToAddrScript(arbiterAddr)
	if err != nil {
		t.Fatalf("arbiter script: %v", err)
	}

	payoutTx := wire.NewMsgTx(wire.TxVersion)
	payoutTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0xcc}, 0), nil, nil))
	payoutTx.AddTxOut(wire.NewTxOut(want, sellerScript))
	payoutTx.AddTxOut(wire.NewTxOut(fee, arbiterScript))
	var buf bytes.Buffer
	if err := payoutTx.Serialize(&buf); err != nil {
		t.Fatalf("serialize payout tx: %v", err)
	}

	e := &types.Escrow{GUID: existing.GUID, RawTx: hex.EncodeToString(buf.Bytes())}
	payload := codec.EncodeEscrow(e)
	tx := buildServiceTx(t, script.EscrowComplete, [][]byte{e.GUID, []byte("0")}, payload)
	withPrevAliasInput(t, v, tx, "seller3", []byte{0x77})

	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("escrow complete: %v", err)
	}
	stored, ok := mem.GetEscrow(existing.GUID)
	if !ok {
		t.Fatalf("escrow not persisted")
	}
	if stored.Op != types.EscrowComplete {
		t.Errorf("escrow op = %d, want EscrowComplete", stored.Op)
	}
}

// TestMessageActivateSkipsSenderCheckOnConnect pins the historical
// CheckMessageInputs behavior (message.cpp never gates the from-alias
// authorization check on fJustCheck==false): a message whose previous
// alias input does not match FromAlias is rejected in JustCheck but must
// still be accepted on connect, since that is what already-mined blocks
// depend on.
func TestMessageActivateSkipsSenderCheckOnConnect(t *testing.T) {
	v, mem := newValidator(10)
	seedAlias(t, v, mem, "recipient2", 0x56, bytes.Repeat([]byte{0x22}, 33))

	m := &types.Message{GUID: []byte{0x57}, FromAlias: "claimed-sender", ToAlias: "recipient2", Subject: "hi"}
	payload := codec.EncodeMessage(m)
	tx := buildServiceTx(t, script.MessageActivate, [][]byte{m.GUID}, payload)
	withPrevAliasInput(t, v, tx, "actual-sender", []byte{0x58})

	if err := v.Check(tx, JustCheck); err == nil {
		t.Errorf("expected JustCheck rejection: prev alias input does not match FromAlias")
	}
	if err := v.Check(tx, Connect); err != nil {
		t.Fatalf("connect must accept despite the mismatch: %v", err)
	}
	if _, ok := mem.GetMessage(m.GUID); !ok {
		t.Errorf("message not persisted on connect")
	}
}

// TestOfferAcceptLinkedOfferPaysParentMerchant verifies that accepting a
// reseller's linked offer pays the buyer-price share to the upstream
// parent's alias and the commission share to the reseller's own alias.
func TestOfferAcceptLinkedOfferPaysParentMerchant(t *testing.T) {
	v, mem := newValidator(100)
	parentKey := bytes.Repeat([]byte{0x13}, 33)
	seedAlias(t, v, mem, "upstream", 0x80, parentKey)
	resellerKey := bytes.Repeat([]byte{0x14}, 33)
	seedAlias(t, v, mem, "reseller", 0x81, resellerKey)

	parent := &types.Offer{GUID: []byte{0x82}, Alias: "upstream", Price: 1000, Quantity: -1}
	if err := mem.PutOffer(parent); err != nil {
		t.Fatalf("seed parent offer: %v", err)
	}
	linked := &types.Offer{GUID: []byte{0x83}, Alias: "reseller", Price: 1050, Quantity: -1, LinkOffer: parent.GUID}
	if err := mem.PutOffer(linked); err != nil {
		t.Fatalf("seed linked offer: %v", err)
	}

	parentDest := p2pkhScript(t, parentKey)
	resellerDest := p2pkhScript(t, resellerKey)
	acc := &types.Accept{OfferGUID: linked.GUID, AcceptGUID: []byte{0x84}, BuyerAlias: "dave2", Quantity: 1}
	acceptPayload := codec.EncodeAccept(acc)
	acceptTx := buildServiceTx(t, script.OfferAccept,
		[][]byte{linked.GUID, acc.AcceptGUID, []byte("0")},
		acceptPayload,
		wire.NewTxOut(1000, parentDest),
		wire.NewTxOut(50, resellerDest),
	)

	if err := v.Check(acceptTx, Connect); err != nil {
		t.Fatalf("linked accept: %v", err)
	}
	stored, ok := mem.GetAccept(acc.AcceptGUID)
	if !ok {
		t.Fatalf("accept not persisted")
	}
	if stored.BuyerPrice != 1000 {
		t.Errorf("buyer price = %d, want 1000 (parent's price)", stored.BuyerPrice)
	}
	if stored.Commission != 50 {
		t.Errorf("commission = %d, want 50", stored.Commission)
	}
}

// TestOfferAcceptLinkedOfferRejectsMissingParentPayment confirms the
// merchant-payment check actually targets the parent's address: paying
// only the reseller's own address (the pre-fix behavior) must now fail.
func TestOfferAcceptLinkedOfferRejectsMissingParentPayment(t *testing.T) {
	v, mem := newValidator(100)
	parentKey := bytes.Repeat([]byte{0x15}, 33)
	seedAlias(t, v, mem, "upstream2", 0x85, parentKey)
	resellerKey := bytes.Repeat([]byte{0x16}, 33)
	seedAlias(t, v, mem, "reseller2", 0x86, resellerKey)

	parent := &types.Offer{GUID: []byte{0x87}, Alias: "upstream2", Price: 1000, Quantity: -1}
	if err := mem.PutOffer(parent); err != nil {
		t.Fatalf("seed parent offer: %v", err)
	}
	linked := &types.Offer{GUID: []byte{0x88}, Alias: "reseller2", Price: 1050, Quantity: -1, LinkOffer: parent.GUID}
	if err := mem.PutOffer(linked); err != nil {
		t.Fatalf("seed linked offer: %v", err)
	}

	resellerDest := p2pkhScript(t, resellerKey)
	acc := &types.Accept{OfferGUID: linked.GUID, AcceptGUID: []byte{0x89}, BuyerAlias: "dave3", Quantity: 1}
	acceptPayload := codec.EncodeAccept(acc)
	// Entire amount paid to the reseller only; the parent never gets paid.
	acceptTx := buildServiceTx(t, script.OfferAccept,
		[][]byte{linked.GUID, acc.AcceptGUID, []byte("0")},
		acceptPayload,
		wire.NewTxOut(1050, resellerDest),
	)

	if err := v.Check(acceptTx, JustCheck); err == nil {
		t.Errorf("expected rejection: parent merchant address never paid")
	}
}

// TestEscrowCompleteLinkedOfferRequiresAffiliateCommission exercises the
// affiliate-commission payout pinned at ACTIVATE and checked at COMPLETE
// for an escrow over a reseller's linked offer.
func TestEscrowCompleteLinkedOfferRequiresAffiliateCommission(t *testing.T) {
	v, mem := newValidator(200)
	parentKey := bytes.Repeat([]byte{0x17}, 33)
	seedAlias(t, v, mem, "upstream3", 0x90, parentKey)
	resellerKey := bytes.Repeat([]byte{0x18}, 33)
	seedAlias(t, v, mem, "reseller3", 0x91, resellerKey)
	arbiterKey := bytes.Repeat([]byte{0x19}, 33)
	seedAlias(t, v, mem, "arbiter4", 0x92, arbiterKey)
	seedAlias(t, v, mem, "buyer4", 0x93, bytes.Repeat([]byte{0x1a}, 33))

	parent := &types.Offer{GUID: []byte{0x94}, Alias: "upstream3", Price: 1000, Quantity: -1}
	if err := mem.PutOffer(parent); err != nil {
		t.Fatalf("seed parent offer: %v", err)
	}
	linked := &types.Offer{GUID: []byte{0x95}, Alias: "reseller3", Price: 1050, Quantity: -1, LinkOffer: parent.GUID}
	if err := mem.PutOffer(linked); err != nil {
		t.Fatalf("seed linked offer: %v", err)
	}

	e := &types.Escrow{
		GUID: []byte{0x96}, BuyerAlias: "buyer4", SellerAlias: "upstream3", ArbiterAlias: "arbiter4",
		OfferGUID: linked.GUID, Quantity: 1, RedeemScript: []byte{0x01, 0x02},
	}
	payload := codec.EncodeEscrow(e)
	activateTx := buildServiceTx(t, script.EscrowActivate, [][]byte{e.GUID, []byte("0")}, payload)
	if err := v.Check(activateTx, Connect); err != nil {
		t.Fatalf("escrow activate: %v", err)
	}
	stored, ok := mem.GetEscrow(e.GUID)
	if !ok {
		t.Fatalf("escrow not persisted")
	}
	if stored.PinnedPrice != 1000 {
		t.Errorf("pinned price = %d, want 1000 (parent's price)", stored.PinnedPrice)
	}
	if stored.AffiliateAlias != "reseller3" || stored.PinnedCommission != 50 {
		t.Errorf("affiliate = %q commission = %d, want reseller3/50", stored.AffiliateAlias, stored.PinnedCommission)
	}

	stored = stored.Clone()
	stored.Op = types.EscrowRelease
	if err := mem.PutEscrow(stored); err != nil {
		t.Fatalf("seed release: %v", err)
	}

	sellerScript := p2pkhScript(t, parentKey)
	arbiterScript := p2pkhScript(t, arbiterKey)
	arbiterFee := sideeffect.ArbiterFee(1000, v.MinRelayFeePerKB)

	payoutTx := wire.NewMsgTx(wire.TxVersion)
	payoutTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0xdd}, 0), nil, nil))
	payoutTx.AddTxOut(wire.NewTxOut(1000, sellerScript))
	payoutTx.AddTxOut(wire.NewTxOut(arbiterFee, arbiterScript))
	var buf bytes.Buffer
	if err := payoutTx.Serialize(&buf); err != nil {
		t.Fatalf("serialize payout tx: %v", err)
	}

	completeE := &types.Escrow{GUID: e.GUID, RawTx: hex.EncodeToString(buf.Bytes())}
	completePayload := codec.EncodeEscrow(completeE)
	completeTx := buildServiceTx(t, script.EscrowComplete, [][]byte{e.GUID, []byte("0")}, completePayload)
	withPrevAliasInput(t, v, completeTx, "upstream3", []byte{0x97})

	if err := v.Check(completeTx, Connect); err == nil {
		t.Errorf("expected rejection: raw tx is missing the affiliate commission payout")
	}

	affiliateScript := p2pkhScript(t, resellerKey)
	payoutTx.AddTxOut(wire.NewTxOut(50, affiliateScript))
	buf.Reset()
	if err := payoutTx.Serialize(&buf); err != nil {
		t.Fatalf("serialize payout tx with commission: %v", err)
	}
	completeE.RawTx = hex.EncodeToString(buf.Bytes())
	completePayload = codec.EncodeEscrow(completeE)
	completeTx = buildServiceTx(t, script.EscrowComplete, [][]byte{e.GUID, []byte("0")}, completePayload)
	withPrevAliasInput(t, v, completeTx, "upstream3", []byte{0x97})

	if err := v.Check(completeTx, Connect); err != nil {
		t.Fatalf("escrow complete with commission paid: %v", err)
	}
}
