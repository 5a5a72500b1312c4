// Package chainutil wraps btcsuite/btcd/rpcclient the way the teacher's
// internal/bitcoin/client.go does: a thin Client over the node RPC plus
// small concrete adapters satisfying internal/chainiface, so production
// wiring (cmd/svcd) can hand the validator a live chain view instead of a
// test fake.
package chainutil

import (
	"log"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

type Config struct {
	Host string
	User string
	Pass string
}

type Client struct {
	RPC    *rpcclient.Client
	Config Config
}

func NewClient(cfg Config) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	log.Printf("[chainutil] connecting to node RPC at %s...", cfg.Host)
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, err
	}

	height, err := client.GetBlockCount()
	if err != nil {
		client.Shutdown()
		return nil, err
	}
	log.Printf("[chainutil] connected, tip height %d", height)

	return &Client{RPC: client, Config: cfg}, nil
}

func (c *Client) Shutdown() { c.RPC.Shutdown() }

func (c *Client) GetBlockCount() (int64, error) { return c.RPC.GetBlockCount() }

func (c *Client) GetBlockHash(height int64) (*chainhash.Hash, error) {
	return c.RPC.GetBlockHash(height)
}

func (c *Client) GetBlockVerbose(hash *chainhash.Hash) (*btcjson.GetBlockVerboseResult, error) {
	return c.RPC.GetBlockVerbose(hash)
}

func (c *Client) GetRawTransaction(hash *chainhash.Hash) (*wire.MsgTx, error) {
	tx, err := c.RPC.GetRawTransaction(hash)
	if err != nil {
		return nil, err
	}
	return tx.MsgTx(), nil
}

func (c *Client) GetRawMempool() ([]*chainhash.Hash, error) { return c.RPC.GetRawMempool() }

// GetTxOut resolves outpoint against the node's UTXO set via gettxout,
// including unconfirmed (mempool) outputs, for internal/chainiface.UTXOView.
func (c *Client) GetTxOut(hash *chainhash.Hash, index uint32) (*wire.TxOut, error) {
	res, err := c.RPC.GetTxOut(hash, index, true)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	script, err := hexDecode(res.ScriptPubKey.Hex)
	if err != nil {
		return nil, err
	}
	amount, err := btcjsonAmountToSatoshi(res.Value)
	if err != nil {
		return nil, err
	}
	return wire.NewTxOut(amount, script), nil
}

// EstimateSmartFeeSatPerKB follows the teacher's conservative -> economical
// -> mempool-floor fallback chain (internal/bitcoin/client.go), returned in
// satoshis per kilobyte, the unit of internal/dataoutput's fee floor.
// Nothing in this module calls it; cmd/svcd takes the floor from config.
func (c *Client) EstimateSmartFeeSatPerKB(confTarget int64) (int64, error) {
	conservative := btcjson.EstimateModeConservative
	if res, err := c.RPC.EstimateSmartFee(confTarget, &conservative); err == nil && res != nil && res.FeeRate != nil && *res.FeeRate > 0 {
		return btcPerKBToSat(*res.FeeRate), nil
	}
	economical := btcjson.EstimateModeEconomical
	if res, err := c.RPC.EstimateSmartFee(confTarget, &economical); err == nil && res != nil && res.FeeRate != nil && *res.FeeRate > 0 {
		return btcPerKBToSat(*res.FeeRate), nil
	}
	info, err := c.RPC.GetMempoolInfo()
	if err != nil {
		return 0, err
	}
	floor := info.MempoolMinFee
	if info.MinRelayTxFee > floor {
		floor = info.MinRelayTxFee
	}
	return btcPerKBToSat(floor), nil
}

func btcPerKBToSat(v float64) int64 { return int64(v * 1e8) }
