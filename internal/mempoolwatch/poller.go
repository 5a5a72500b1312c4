package mempoolwatch

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/syscoin/svcconsensus/internal/chainutil"
	"github.com/syscoin/svcconsensus/internal/codec"
	"github.com/syscoin/svcconsensus/internal/dataoutput"
	"github.com/syscoin/svcconsensus/internal/script"
	"github.com/syscoin/svcconsensus/internal/txdecoder"
	"github.com/syscoin/svcconsensus/internal/validator"
)

// Broadcaster is the subset of internal/api.Hub the watcher needs; kept as
// a narrow interface so this package does not import internal/api.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Event is the realtime payload pushed to subscribers for every service
// transaction the watcher observes, whether still pending or newly
// connected.
type Event struct {
	Type      string `json:"type"` // "pending" or "connected"
	TxID      string `json:"txid"`
	Op        string `json:"op"`
	Height    uint32 `json:"height,omitempty"`
	Malformed bool   `json:"malformed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Watcher polls a node for mempool and newly connected service
// transactions and runs them through a Validator, in the style of the
// teacher's mempool.Poller: a ticker loop, a seen-txid set bounded by
// periodic cleanup, and a capped per-tick batch.
type Watcher struct {
	Client    *chainutil.Client
	Validator *validator.Validator
	Tracker   *Tracker
	Hub       Broadcaster

	seenMempool map[chainhash.Hash]bool
	lastHeight  int64
}

func NewWatcher(client *chainutil.Client, v *validator.Validator, tracker *Tracker, hub Broadcaster) *Watcher {
	return &Watcher{
		Client:      client,
		Validator:   v,
		Tracker:     tracker,
		Hub:         hub,
		seenMempool: make(map[chainhash.Hash]bool),
	}
}

// maxPerTick caps how many new mempool transactions are processed in a
// single tick, to avoid lagging the node under a transaction flood
// (mirrors the teacher's poller capping itself at 20 per tick).
const maxPerTick = 20

// RunMempool polls the node's mempool every 3 seconds, JustCheck-validating
// every new service transaction it finds and broadcasting the result.
func (w *Watcher) RunMempool(ctx context.Context) {
	if w.Client == nil {
		log.Println("[mempoolwatch] chain client is nil; mempool watcher will not start")
		return
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	cleanup := time.NewTicker(1 * time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[mempoolwatch] stopping mempool watcher")
			return
		case <-cleanup.C:
			w.seenMempool = make(map[chainhash.Hash]bool)
		case <-ticker.C:
			w.pollMempoolOnce()
		}
	}
}

func (w *Watcher) pollMempoolOnce() {
	hashes, err := w.Client.GetRawMempool()
	if err != nil {
		log.Printf("[mempoolwatch] GetRawMempool failed: %v", err)
		return
	}

	processed := 0
	for _, hash := range hashes {
		if w.seenMempool[*hash] {
			continue
		}
		w.seenMempool[*hash] = true

		tx, err := w.Client.GetRawTransaction(hash)
		if err != nil {
			continue
		}
		if !txdecoder.IsServiceVersion(tx) {
			continue
		}
		w.checkAndBroadcast(tx, "pending", 0)

		processed++
		if processed >= maxPerTick {
			break
		}
	}
}

// RunBlocks polls the node's tip every 10 seconds and connect-validates
// every service transaction in each newly found block, in block order
// (§5 "Ordering guarantees").
func (w *Watcher) RunBlocks(ctx context.Context) {
	if w.Client == nil {
		log.Println("[mempoolwatch] chain client is nil; block watcher will not start")
		return
	}

	if tip, err := w.Client.GetBlockCount(); err == nil {
		w.lastHeight = tip // start from the current tip, do not replay chain history
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[mempoolwatch] stopping block watcher")
			return
		case <-ticker.C:
			w.pollBlocksOnce()
		}
	}
}

func (w *Watcher) pollBlocksOnce() {
	tip, err := w.Client.GetBlockCount()
	if err != nil {
		log.Printf("[mempoolwatch] GetBlockCount failed: %v", err)
		return
	}
	for height := w.lastHeight + 1; height <= tip; height++ {
		hash, err := w.Client.GetBlockHash(height)
		if err != nil {
			log.Printf("[mempoolwatch] GetBlockHash(%d) failed: %v", height, err)
			return
		}
		block, err := w.Client.GetBlockVerbose(hash)
		if err != nil {
			log.Printf("[mempoolwatch] GetBlockVerbose(%d) failed: %v", height, err)
			return
		}
		for _, txid := range block.Tx {
			txHash, err := chainhash.NewHashFromStr(txid)
			if err != nil {
				continue
			}
			tx, err := w.Client.GetRawTransaction(txHash)
			if err != nil {
				continue
			}
			if !txdecoder.IsServiceVersion(tx) {
				continue
			}
			w.Tracker.Forget(tx.TxHash())
			w.checkAndBroadcast(tx, "connected", uint32(height))
		}
		w.lastHeight = height
	}
}

func (w *Watcher) checkAndBroadcast(tx *wire.MsgTx, eventType string, height uint32) {
	mode := validator.JustCheck
	if eventType == "connected" {
		mode = validator.Connect
	}

	err := w.Validator.Check(tx, mode)
	ev := Event{Type: eventType, TxID: tx.TxHash().String(), Height: height}
	if err != nil {
		ev.Malformed = true
		ev.Error = err.Error()
	} else {
		ev.Op = opName(tx)
		if eventType == "pending" {
			w.trackIfAccept(tx)
		}
	}
	w.broadcast(ev)
}

// trackIfAccept reserves the accept's purchased quantity in Tracker once a
// JustCheck pass succeeds, so a second concurrently submitted accept for
// the same offer is rejected before either connects.
func (w *Watcher) trackIfAccept(tx *wire.MsgTx) {
	decoded, err := txdecoder.Decode(tx)
	if err != nil || decoded.Op != script.OfferAccept {
		return
	}
	found, err := dataoutput.Extract(tx)
	if err != nil {
		return
	}
	acc, err := codec.DecodeAccept(found.Data)
	if err != nil {
		return
	}
	if len(decoded.Vvch) != 4 || string(decoded.Vvch[2]) != "0" {
		return // feedback transition, not a purchase; nothing to reserve
	}
	w.Tracker.Track(acc.OfferGUID, tx.TxHash(), acc.Quantity)
}

func opName(tx *wire.MsgTx) string {
	decoded, err := txdecoder.Decode(tx)
	if err != nil {
		return ""
	}
	return decoded.Op.String()
}

func (w *Watcher) broadcast(ev Event) {
	if w.Hub == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[mempoolwatch] failed to marshal event: %v", err)
		return
	}
	w.Hub.Broadcast(payload)
}
