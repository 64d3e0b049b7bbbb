package alerts

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// AlertType names the condition that raised an alert.
type AlertType string

const (
	AlertNegativeMargin AlertType = "NEGATIVE_MARGIN"
	AlertLowMargin      AlertType = "LOW_MARGIN"
	AlertLowStock       AlertType = "LOW_STOCK"
)

// Alert is one actionable condition on one product. A product can raise a
// margin alert and a stock alert at the same time.
type Alert struct {
	Type          AlertType        `json:"type"`
	WbArticle     string           `json:"wbArticle,omitempty"`
	Name          string           `json:"name,omitempty"`
	Margin        *decimal.Decimal `json:"margin,omitempty"`
	MarginPercent *decimal.Decimal `json:"marginPercent,omitempty"`
	LocalStock    *int             `json:"localStock,omitempty"`
	WbStock       *int             `json:"wbStock,omitempty"`
	CurrentPrice  *decimal.Decimal `json:"currentPrice,omitempty"`
}

// Service scans the reconciled catalog for margin and stock problems.
type Service struct {
	DB                     *sql.DB
	Engine                 *analytics.Engine
	LowStockThreshold      int
	MarginPercentThreshold decimal.Decimal
}

// BuildAlerts reconciles both catalogs and raises alerts for negative
// margins, margins under the alert threshold, and stock running low. WB
// stock wins over local stock when both are known.
func (s *Service) BuildAlerts() ([]Alert, error) {
	products, err := models.GetAllProducts(s.DB)
	if err != nil {
		return nil, err
	}
	wbProducts, err := models.GetAllWbProducts(s.DB)
	if err != nil {
		return nil, err
	}
	return s.buildAlertsFor(products, wbProducts), nil
}

func (s *Service) buildAlertsFor(products []models.Product, wbProducts []models.WbProduct) []Alert {
	threshold := s.MarginPercentThreshold
	report := s.Engine.BuildReport(products, wbProducts, analytics.ReportOptions{
		IncludeWithoutWb:    true,
		MinMarginPercent:    &threshold,
		IncludeUnprofitable: true,
	})

	alerts := []Alert{}
	for i := range report.AllItems {
		item := &report.AllItems[i]
		if item.Margin != nil && item.Margin.IsNegative() {
			alerts = append(alerts, s.toAlert(item, AlertNegativeMargin))
		} else if item.MarginPercent != nil && item.MarginPercent.LessThan(threshold) {
			alerts = append(alerts, s.toAlert(item, AlertLowMargin))
		}

		stock := item.WbStock
		if stock == nil {
			stock = item.LocalStock
		}
		if stock != nil && *stock < s.LowStockThreshold {
			alerts = append(alerts, s.toAlert(item, AlertLowStock))
		}
	}
	return alerts
}

func (s *Service) toAlert(item *analytics.ProductAnalytics, alertType AlertType) Alert {
	currentPrice := item.WbDiscountPrice
	if currentPrice == nil {
		currentPrice = item.WbPrice
	}
	return Alert{
		Type:          alertType,
		WbArticle:     item.WbArticle,
		Name:          item.Name,
		Margin:        item.Margin,
		MarginPercent: item.MarginPercent,
		LocalStock:    item.LocalStock,
		WbStock:       item.WbStock,
		CurrentPrice:  currentPrice,
	}
}
