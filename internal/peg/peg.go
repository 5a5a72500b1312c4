// Package peg implements currency-peg, ban-list, and category-list lookups
// against the special control aliases (sysrates.peg, sysban, syscategory),
// grounded in alias.cpp's getCurrencyToSYSFromAlias/getBanList/
// getCategoryList. Every lookup degrades gracefully on a missing or
// malformed alias rather than erroring: the original logs and returns a
// sentinel, never a hard failure, so validation still proceeds with a
// neutral outcome (SPEC_FULL §4 item 5).
package peg

import (
	"encoding/json"
	"log"
)

// RateTable is the JSON shape of sysrates.peg's public value (§6).
type RateTable struct {
	Rates []struct {
		Currency  string  `json:"currency"`
		Rate      float64 `json:"rate"`
		Precision int     `json:"precision"`
	} `json:"rates"`
}

// BanList is the JSON shape of sysban's public value (§6).
type BanList struct {
	Aliases []BanEntry `json:"aliases"`
	Certs   []BanEntry `json:"certs"`
	Offers  []BanEntry `json:"offers"`
}

type BanEntry struct {
	ID       string `json:"id"`
	Severity uint8  `json:"severity"`
}

// CategoryList is the JSON shape of syscategory's public value (§6).
type CategoryList struct {
	Categories []struct {
		Cat string `json:"cat"`
	} `json:"categories"`
}

// Rate looks up currency in the rate table carried by the peg alias's
// public value. ok=false (not an error) on any parse failure or missing
// currency, mirroring getCurrencyToSYSFromAlias's "return \"1\"" /
// "return \"0\"" sentinels: callers must treat a missing rate as "do not
// convert" rather than aborting validation.
func Rate(publicValue []byte, currency string) (rate float64, precision int, ok bool) {
	var table RateTable
	if err := json.Unmarshal(publicValue, &table); err != nil {
		log.Printf("[peg] malformed rate table: %v", err)
		return 0, 0, false
	}
	for _, r := range table.Rates {
		if r.Currency == currency {
			return r.Rate, r.Precision, true
		}
	}
	return 0, 0, false
}

// ParseBanList parses sysban's public value, returning an empty BanList
// (not an error) on malformed JSON so callers treat it as "nothing banned"
// rather than rejecting every transaction.
func ParseBanList(publicValue []byte) BanList {
	var bl BanList
	if err := json.Unmarshal(publicValue, &bl); err != nil {
		log.Printf("[peg] malformed ban list: %v", err)
	}
	return bl
}

// Severity returns the ban severity recorded for id in list (one of bl's
// three sublists), or (0, false) if id is not listed there.
func (bl BanList) Severity(id string, list []BanEntry) (uint8, bool) {
	for _, e := range list {
		if e.ID == id {
			return e.Severity, true
		}
	}
	return 0, false
}

// ParseCategoryList parses syscategory's public value, returning nil (not
// an error) on malformed JSON.
func ParseCategoryList(publicValue []byte) []string {
	var cl CategoryList
	if err := json.Unmarshal(publicValue, &cl); err != nil {
		log.Printf("[peg] malformed category list: %v", err)
		return nil
	}
	out := make([]string, 0, len(cl.Categories))
	for _, c := range cl.Categories {
		out = append(out, c.Cat)
	}
	return out
}

// precisionFailSafe returns true if precision exceeds 8, the point at
// which the original zeros out the conversion result rather than risk an
// overflowing CAmount (§4, SPEC_FULL item 4).
func precisionFailSafe(precision int) bool { return precision > 8 }

// ToSyscoin converts price units of currency into satoshis at rate,
// applying the precision>8 fail-safe (alias.cpp convertCurrencyCodeToSyscoin).
func ToSyscoin(price float64, rate float64, precision int, coin int64) int64 {
	if precisionFailSafe(precision) {
		return 0
	}
	return int64(price * rate * float64(coin))
}

// FromSyscoin converts a satoshi amount back into currency units at rate,
// the inverse of ToSyscoin, applying the same fail-safe (alias.cpp
// convertSyscoinToCurrencyCode).
func FromSyscoin(amountSat int64, rate float64, precision int, coin int64) float64 {
	if precisionFailSafe(precision) || rate == 0 || coin == 0 {
		return 0
	}
	return float64(amountSat) / (rate * float64(coin))
}
