// Package query implements the deterministic, read-only scans of §4.9: a
// pure function of store state plus chain tip, no network I/O. Multi-store
// fan-out uses golang.org/x/sync/errgroup the way the rest of the pack's
// concurrency-aware packages lean on the golang.org/x family instead of
// hand-rolled goroutine/WaitGroup bookkeeping.
package query

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/syscoin/svcconsensus/internal/expiry"
	"github.com/syscoin/svcconsensus/internal/store"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// Engine answers read-only scans over a Store snapshot. It holds no state
// of its own beyond the collaborators needed to judge expiration and
// safety; every method is a pure function of its arguments plus the
// current contents of Store.
type Engine struct {
	Store           store.Store
	Tip             uint32
	ExpirationDepth uint32
}

// Cancelled is returned (wrapping partial results is the caller's job via
// the ctx-aware variants below) when ctx is done mid-scan, per §5
// "Cancellation... yields partial results with a transient error".
var Cancelled = context.Canceled

// maxScanResults bounds a single regex/prefix scan so an unauthenticated
// caller cannot force an unbounded walk of the whole store.
const maxScanResults = 1000

// SafeSearchFloor is the safetyLevel at or above which an entry is hidden
// from a safeSearch-filtered scan (§4.9).
const SafeSearchFloor = types.SafetyLevel1

// AliasesByRegex scans alias names case-insensitively against pattern,
// lowercasing both sides first, honoring safeSearch and expiration, and
// stopping after limit matches (or maxScanResults, whichever is smaller).
func (e *Engine) AliasesByRegex(ctx context.Context, pattern string, safeSearch bool, limit int) ([]*types.Alias, error) {
	re, err := regexp.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxScanResults {
		limit = maxScanResults
	}

	var out []*types.Alias
	for _, a := range e.Store.AllAliases() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if expiry.AliasExpired(a, e.Tip, e.ExpirationDepth) {
			continue
		}
		if safeSearch && a.SafetyLevel >= SafeSearchFloor {
			continue
		}
		if !re.MatchString(strings.ToLower(a.Name)) {
			continue
		}
		out = append(out, a)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// OffersByRegex scans offer titles, additionally hiding an offer whose
// controlling alias itself fails the safeSearch check (§4.9: "those whose
// owning alias fails the same check").
func (e *Engine) OffersByRegex(ctx context.Context, pattern string, safeSearch bool, limit int) ([]*types.Offer, error) {
	re, err := regexp.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxScanResults {
		limit = maxScanResults
	}

	var out []*types.Offer
	for _, o := range e.Store.AllOffers() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if expiry.OfferExpired(o, e.Tip, e.ExpirationDepth) {
			continue
		}
		if safeSearch {
			if o.SafetyLevel >= SafeSearchFloor {
				continue
			}
			if owner, ok := e.Store.GetAliasByName(o.Alias); ok && owner.SafetyLevel >= SafeSearchFloor {
				continue
			}
		}
		if !re.MatchString(strings.ToLower(o.Title)) {
			continue
		}
		out = append(out, o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// OffersByCategory returns unexpired offers whose Category matches exactly
// (§4.9 "By category prefix" — offers and certs are filed under a small,
// fixed category taxonomy rather than a hierarchical prefix tree, so an
// exact, case-insensitive match is the faithful behavior; see DESIGN.md).
func (e *Engine) OffersByCategory(ctx context.Context, category string, limit int) ([]*types.Offer, error) {
	if limit <= 0 || limit > maxScanResults {
		limit = maxScanResults
	}
	category = strings.ToLower(category)
	var out []*types.Offer
	for _, o := range e.Store.AllOffers() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if expiry.OfferExpired(o, e.Tip, e.ExpirationDepth) {
			continue
		}
		if strings.ToLower(o.Category) != category {
			continue
		}
		out = append(out, o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (e *Engine) CertsByCategory(ctx context.Context, category string, limit int) ([]*types.Cert, error) {
	if limit <= 0 || limit > maxScanResults {
		limit = maxScanResults
	}
	category = strings.ToLower(category)
	var out []*types.Cert
	for _, c := range e.Store.AllCerts() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if expiry.CertExpired(c, e.Tip, e.ExpirationDepth) {
			continue
		}
		if strings.ToLower(c.Category) != category {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// OffersByOwner returns every unexpired offer controlled by alias.
func (e *Engine) OffersByOwner(ctx context.Context, alias string) ([]*types.Offer, error) {
	var out []*types.Offer
	for _, o := range e.Store.AllOffers() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if o.Alias != alias {
			continue
		}
		if expiry.OfferExpired(o, e.Tip, e.ExpirationDepth) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// OwnerSnapshot is the joined per-owner view §4.9's "By owner" listing
// describes: offers, certs, and accepts the alias participates in as
// buyer, gathered by a parallel fan-out across the three stores.
type OwnerSnapshot struct {
	Offers  []*types.Offer
	Certs   []*types.Cert
	Accepts []*types.Accept
}

// OwnerListing joins every record an alias owns or participates in across
// the offer, cert, and accept stores. The three scans are independent, so
// they fan out under an errgroup the way the teacher's concurrency-aware
// packages do multi-source joins, rather than a hand-rolled WaitGroup.
func (e *Engine) OwnerListing(ctx context.Context, alias string) (OwnerSnapshot, error) {
	var snap OwnerSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		offers, err := e.OffersByOwner(gctx, alias)
		snap.Offers = offers
		return err
	})
	g.Go(func() error {
		var certs []*types.Cert
		for _, c := range e.Store.AllCerts() {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if c.Alias != alias {
				continue
			}
			if expiry.CertExpired(c, e.Tip, e.ExpirationDepth) {
				continue
			}
			certs = append(certs, c)
		}
		snap.Certs = certs
		return nil
	})
	g.Go(func() error {
		var accepts []*types.Accept
		for _, o := range e.Store.AllOffers() {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			for _, a := range e.Store.AcceptsForOffer(o.GUID) {
				if a.BuyerAlias == alias {
					accepts = append(accepts, a)
				}
			}
		}
		snap.Accepts = accepts
		return nil
	})

	if err := g.Wait(); err != nil {
		return snap, err
	}
	return snap, nil
}

// AliasHistory, OfferHistory, and MessageHistory return every stored
// version for guid in insertion order (§4.9 "History").
func (e *Engine) AliasHistory(guid []byte) []*types.Alias   { return e.Store.AliasHistory(guid) }
func (e *Engine) OfferHistory(guid []byte) []*types.Offer   { return e.Store.OfferHistory(guid) }
func (e *Engine) MessageHistory(guid []byte) []*types.Message { return e.Store.MessageHistory(guid) }
