// Command svcd runs the services consensus core as a standalone demo
// daemon: it connects to a node over RPC, watches mempool and newly
// connected blocks for service transactions, validates them, and exposes
// the read-only query surface plus a realtime event stream over HTTP.
//
// Modeled directly on cmd/engine/main.go's wiring: required RPC
// credentials, optional database, warn-and-continue if either is
// unavailable rather than refusing to start.
package main

import (
	"context"
	"log"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/syscoin/svcconsensus/internal/api"
	"github.com/syscoin/svcconsensus/internal/chainutil"
	"github.com/syscoin/svcconsensus/internal/config"
	"github.com/syscoin/svcconsensus/internal/mempoolwatch"
	"github.com/syscoin/svcconsensus/internal/query"
	"github.com/syscoin/svcconsensus/internal/store"
	"github.com/syscoin/svcconsensus/internal/validator"
)

func main() {
	log.Println("starting syscoin services consensus core (svcd)...")

	cfg := config.Load()

	var st store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: failed to connect to postgres, continuing with in-memory store only: %v", err)
		} else {
			defer pg.Close()
			if err := pg.InitSchema(); err != nil {
				log.Printf("warning: postgres schema init failed: %v", err)
			}
			// pg is only connected and given its schema here; nothing writes
			// records to it. The validator and query layers read/write
			// through the in-memory Store.
		}
	}

	chainClient, err := chainutil.NewClient(chainutil.Config{
		Host: cfg.ChainRPCHost,
		User: cfg.ChainRPCUser,
		Pass: cfg.ChainRPCPass,
	})
	if err != nil {
		log.Printf("warning: failed to connect to chain RPC: %v", err)
	} else {
		defer chainClient.Shutdown()
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	v := &validator.Validator{
		Store:            st,
		ChainParams:      &chaincfg.MainNetParams,
		ActivationHeight: cfg.ActivationHeight,
		ExpirationDepth:  cfg.ExpirationDepth,
		MinRelayFeePerKB: cfg.MinRelayFeePerKB,
	}

	tracker := mempoolwatch.NewTracker()
	v.PendingAccepts = tracker

	var tip uint32
	if chainClient != nil {
		chainTip := chainutil.ChainTip{Client: chainClient}
		v.Tip = chainTip
		v.UTXO = chainutil.UTXOView{Client: chainClient}
		tip = chainTip.Height()

		watcher := mempoolwatch.NewWatcher(chainClient, v, tracker, wsHub)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.RunMempool(ctx)
		go watcher.RunBlocks(ctx)
	} else {
		log.Println("warning: chain RPC unavailable — running in API-only mode (no mempool/block watcher)")
		v.Tip = staticTip(0)
	}

	q := &query.Engine{Store: st, Tip: tip, ExpirationDepth: cfg.ExpirationDepth}

	r := api.SetupRouter(st, q, wsHub)

	log.Printf("svcd listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// staticTip is a fallback chainiface.ChainTip for API-only mode, when no
// chain RPC connection is available to poll a live height from.
type staticTip uint32

func (s staticTip) Height() uint32 { return uint32(s) }
