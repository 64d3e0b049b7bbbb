package analytics

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// SalePrice returns the effective sale price used for margin computations:
// the WB discounted price, else the WB base price, else the local price.
func (item *ProductAnalytics) SalePrice() *decimal.Decimal {
	if item.WbDiscountPrice != nil {
		return item.WbDiscountPrice
	}
	if item.WbPrice != nil {
		return item.WbPrice
	}
	return item.LocalPrice
}

// TotalCosts sums the cost components that are known. All four absent means
// the total is unknown, not zero.
func (item *ProductAnalytics) TotalCosts() *decimal.Decimal {
	total := decimal.Zero
	known := false
	for _, c := range []*decimal.Decimal{item.PurchasePrice, item.LogisticsCost, item.MarketingCost, item.OtherExpenses} {
		if c != nil {
			total = total.Add(*c)
			known = true
		}
	}
	if !known {
		return nil
	}
	return &total
}

// computeMargins derives margin and margin percent, leaving both unset when
// the sale price or every cost component is unknown. Margin is rounded to 2
// digits half up; the percent keeps 4 digits through the division before the
// final rounding.
func computeMargins(item *ProductAnalytics) {
	salePrice := item.SalePrice()
	if salePrice == nil {
		return
	}
	totalCosts := item.TotalCosts()
	if totalCosts == nil {
		return
	}

	margin := salePrice.Sub(*totalCosts)
	rounded := margin.Round(2)
	item.Margin = &rounded
	if salePrice.IsPositive() {
		percent := margin.DivRound(*salePrice, 4).Mul(oneHundred).Round(2)
		item.MarginPercent = &percent
	}
}
