// Package resolve derives a single effective price from the competing raw
// price fields of one row. The precedence rule lives here, independent of
// any parser, so it can be tested against bare field tuples.
package resolve

import "github.com/gyeh/pricebench/internal/model"

// EffectivePrice applies the strict precedence rule over a tuple of optional
// price inputs:
//
//  1. an explicit negotiated dollar amount, when present and positive;
//  2. the CMS-required estimated amount, covering payers whose negotiated
//     rate is a percentage or algorithm reference instead of a dollar figure;
//  3. the discounted cash price, as last resort.
//
// A row with none of the three has no derivable price and must be excluded
// by the caller; it is never passed downstream with a null price.
func EffectivePrice(negotiatedDollar, estimatedAmount, cashPrice *float64) (float64, model.PriceBasis, bool) {
	if usable(negotiatedDollar) {
		return *negotiatedDollar, model.BasisNegotiatedDollar, true
	}
	if usable(estimatedAmount) {
		return *estimatedAmount, model.BasisEstimatedAmount, true
	}
	if usable(cashPrice) {
		return *cashPrice, model.BasisCashPrice, true
	}
	return 0, "", false
}

// FromRaw resolves a RawRow's effective price.
func FromRaw(r *model.RawRow) (float64, model.PriceBasis, bool) {
	return EffectivePrice(r.NegotiatedDollar, r.EstimatedAmount, r.CashPrice)
}

func usable(v *float64) bool {
	return v != nil && *v > 0
}
