package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Warning messages are user-facing and kept distinct per condition so
// consumers can tell conditions apart without parsing.
const (
	WarnNoWbData          = "Imported from the cost sheet; no WB listing matched."
	WarnNoLocalData       = "No local cost data matched; upload a cost sheet to reconcile."
	WarnNoPurchasePrice   = "Purchase price is not filled in."
	WarnNoLogisticsCost   = "Logistics cost is not filled in."
	WarnNoMarketingCost   = "Marketing costs are not filled in."
	WarnNoOtherExpenses   = "Other expenses are not filled in."
	WarnDiscountAboveBase = "Discounted price exceeds the WB base price."
	WarnMarginUnknown     = "Margin could not be computed."
	WarnNegativeMargin    = "Margin is negative. Check costs and prices."
)

// classify appends warnings and derives the classification flags. The call
// finishes the item: margins must already be computed, and nothing mutates
// the item afterwards.
func classify(item *ProductAnalytics, marginThreshold decimal.Decimal, filterNegativeMargin bool) {
	switch item.DataSource {
	case SourceLocalOnly:
		item.Warnings = append(item.Warnings, WarnNoWbData)
	case SourceRemoteOnly:
		item.Warnings = append(item.Warnings, WarnNoLocalData)
	}

	if item.PurchasePrice == nil {
		item.Warnings = append(item.Warnings, WarnNoPurchasePrice)
	}
	if item.LogisticsCost == nil {
		item.Warnings = append(item.Warnings, WarnNoLogisticsCost)
	}
	if item.MarketingCost == nil {
		item.Warnings = append(item.Warnings, WarnNoMarketingCost)
	}
	if item.OtherExpenses == nil {
		item.Warnings = append(item.Warnings, WarnNoOtherExpenses)
	}
	if item.WbPrice != nil && item.WbDiscountPrice != nil && item.WbDiscountPrice.GreaterThan(*item.WbPrice) {
		item.Warnings = append(item.Warnings, WarnDiscountAboveBase)
	}

	if item.Margin == nil {
		item.Warnings = append(item.Warnings, WarnMarginUnknown)
	} else {
		if item.Margin.IsNegative() {
			item.NegativeMargin = true
			if filterNegativeMargin {
				item.Warnings = append(item.Warnings, WarnNegativeMargin)
			}
		}
		if item.MarginPercent == nil || item.MarginPercent.LessThan(marginThreshold) {
			item.MarginBelowThreshold = true
			item.Warnings = append(item.Warnings,
				fmt.Sprintf("Margin is below the %s%% threshold.", marginThreshold.String()))
		}
	}

	hasWarnings := len(item.Warnings) > 0
	item.Profitable = item.Margin != nil &&
		item.MarginPercent != nil &&
		!item.Margin.IsNegative() &&
		item.MarginPercent.GreaterThanOrEqual(marginThreshold) &&
		!hasWarnings
	item.RequiresCorrection = hasWarnings
}
