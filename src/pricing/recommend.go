package pricing

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// DefaultTargetMarginPercent is used when a recommendation request does not
// choose its own target.
var DefaultTargetMarginPercent = decimal.NewFromInt(15)

var one = decimal.NewFromInt(1)
var oneHundred = decimal.NewFromInt(100)

// Service builds price recommendations on top of the analytics engine and
// applies validated batch price updates.
type Service struct {
	DB     *sql.DB
	Engine *analytics.Engine
}

// PriceRecommendation proposes a price that would hit the target margin for
// one WB-listed product.
type PriceRecommendation struct {
	WbArticle           string          `json:"wbArticle,omitempty"`
	Name                string          `json:"name,omitempty"`
	CurrentPrice        decimal.Decimal `json:"currentPrice"`
	TargetMarginPercent decimal.Decimal `json:"targetMarginPercent"`
	RecommendedPrice    decimal.Decimal `json:"recommendedPrice"`
	PriceDelta          decimal.Decimal `json:"priceDelta"`
}

// BuildRecommendations inverts the margin formula across the full catalog.
// Items without known costs or without a WB base price are skipped, since the
// delta is computed against that price.
func (s *Service) BuildRecommendations(targetMarginPercent *decimal.Decimal) ([]PriceRecommendation, error) {
	target := DefaultTargetMarginPercent
	if targetMarginPercent != nil {
		target = *targetMarginPercent
	}

	products, err := models.GetAllProducts(s.DB)
	if err != nil {
		return nil, err
	}
	wbProducts, err := models.GetAllWbProducts(s.DB)
	if err != nil {
		return nil, err
	}

	report := s.Engine.BuildReport(products, wbProducts, analytics.ReportOptions{
		IncludeWithoutWb:    true,
		MinMarginPercent:    &target,
		IncludeUnprofitable: true,
	})

	recommendations := []PriceRecommendation{}
	for i := range report.AllItems {
		item := &report.AllItems[i]
		recommended := RecommendPrice(item, target)
		if recommended == nil || item.WbPrice == nil {
			continue
		}
		recommendations = append(recommendations, PriceRecommendation{
			WbArticle:           item.WbArticle,
			Name:                item.Name,
			CurrentPrice:        *item.WbPrice,
			TargetMarginPercent: target,
			RecommendedPrice:    *recommended,
			PriceDelta:          recommended.Sub(*item.WbPrice).Round(2),
		})
	}
	return recommendations, nil
}

// RecommendPrice solves price = costs / (1 - target/100) at 4 intermediate
// digits, rounded to 2. No recommendation when the costs are unknown, the
// target leaves a non-positive denominator, or the result is not positive.
func RecommendPrice(item *analytics.ProductAnalytics, targetMarginPercent decimal.Decimal) *decimal.Decimal {
	totalCosts := item.TotalCosts()
	if totalCosts == nil {
		return nil
	}
	denominator := one.Sub(targetMarginPercent.DivRound(oneHundred, 4))
	if !denominator.IsPositive() {
		return nil
	}
	price := totalCosts.DivRound(denominator, 4)
	if !price.IsPositive() {
		return nil
	}
	rounded := price.Round(2)
	return &rounded
}
