package analytics

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// DataSource tells which side(s) of the catalog an analytics item was built
// from.
type DataSource string

const (
	SourceLocalOnly  DataSource = "LOCAL_ONLY"
	SourceRemoteOnly DataSource = "REMOTE_ONLY"
	SourceMerged     DataSource = "MERGED"
)

// ProductAnalytics is the merged per-product view: identity references into
// both catalogs, the raw pricing and cost inputs, and the computed margin and
// classification. Items are built fresh on every report request and never
// persisted.
type ProductAnalytics struct {
	DataSource  DataSource `json:"dataSource"`
	ProductID   *int64     `json:"productId,omitempty"`
	WbProductID *int64     `json:"wbProductId,omitempty"`

	WbArticle  string `json:"wbArticle,omitempty"`
	VendorCode string `json:"vendorCode,omitempty"`
	Name       string `json:"name,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Category   string `json:"category,omitempty"`

	LocalPrice      *decimal.Decimal `json:"localPrice,omitempty"`
	WbPrice         *decimal.Decimal `json:"wbPrice,omitempty"`
	WbDiscountPrice *decimal.Decimal `json:"wbDiscountPrice,omitempty"`

	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	LogisticsCost *decimal.Decimal `json:"logisticsCost,omitempty"`
	MarketingCost *decimal.Decimal `json:"marketingCost,omitempty"`
	OtherExpenses *decimal.Decimal `json:"otherExpenses,omitempty"`

	LocalStock *int `json:"localStock,omitempty"`
	WbStock    *int `json:"wbStock,omitempty"`

	Margin        *decimal.Decimal `json:"margin,omitempty"`
	MarginPercent *decimal.Decimal `json:"marginPercent,omitempty"`

	Warnings             []string `json:"warnings"`
	NegativeMargin       bool     `json:"negativeMargin"`
	MarginBelowThreshold bool     `json:"marginBelowThreshold"`
	Profitable           bool     `json:"profitable"`
	RequiresCorrection   bool     `json:"requiresCorrection"`
}

// Reconcile merges the local cost sheet with the WB catalog snapshot. Each
// local product is matched against at most one WB card (numeric article
// first, vendor code second, numeric re-parse last); unmatched rows on either
// side become LOCAL_ONLY / REMOTE_ONLY items when includeUnmatched is set.
// Margins and classification are not filled in here.
func Reconcile(products []models.Product, wbProducts []models.WbProduct, includeUnmatched bool) []ProductAnalytics {
	byNumericID := make(map[string]*models.WbProduct)
	byVendorCode := make(map[string]*models.WbProduct)
	for i := range wbProducts {
		wb := &wbProducts[i]
		if wb.NmID != nil {
			key := strconv.FormatInt(*wb.NmID, 10)
			if _, exists := byNumericID[key]; !exists {
				byNumericID[key] = wb
			}
		}
		if code := NormalizeVendorCode(wb.VendorCode); code != "" {
			if _, exists := byVendorCode[code]; !exists {
				byVendorCode[code] = wb
			}
		}
	}

	claimedKeys := make(map[string]bool)
	var items []ProductAnalytics
	for i := range products {
		p := &products[i]
		wb := findMatch(p, byNumericID, byVendorCode)
		if wb == nil && !includeUnmatched {
			continue
		}
		if wb != nil {
			claimKeys(claimedKeys, p)
		}
		items = append(items, buildItem(p, wb))
	}

	if includeUnmatched {
		for i := range wbProducts {
			wb := &wbProducts[i]
			if !isClaimed(claimedKeys, wb) {
				items = append(items, buildItem(nil, wb))
			}
		}
	}
	return items
}

// claimKeys records every canonical form of a matched product's article key.
// The claim test runs on key equality, not card identity, so a card that lost
// an index collision on the same key counts as claimed too.
func claimKeys(claimed map[string]bool, p *models.Product) {
	key := NormalizeArticle(p.ArticleKey())
	if key == "" {
		return
	}
	claimed[key] = true
	claimed[NormalizeVendorCode(key)] = true
	if n, ok := parseNumericKey(key); ok {
		claimed[strconv.FormatInt(n, 10)] = true
	}
}

func isClaimed(claimed map[string]bool, wb *models.WbProduct) bool {
	if wb.NmID != nil && claimed[strconv.FormatInt(*wb.NmID, 10)] {
		return true
	}
	if code := NormalizeVendorCode(wb.VendorCode); code != "" && claimed[code] {
		return true
	}
	return false
}

func findMatch(p *models.Product, byNumericID, byVendorCode map[string]*models.WbProduct) *models.WbProduct {
	key := NormalizeArticle(p.ArticleKey())
	if key == "" {
		return nil
	}
	if wb, ok := byNumericID[key]; ok {
		return wb
	}
	if wb, ok := byVendorCode[NormalizeVendorCode(key)]; ok {
		return wb
	}
	if n, ok := parseNumericKey(key); ok {
		if wb, ok := byNumericID[strconv.FormatInt(n, 10)]; ok {
			return wb
		}
	}
	return nil
}

// buildItem fills in the merged fields. Local values win, WB values fill the
// gaps.
func buildItem(p *models.Product, wb *models.WbProduct) ProductAnalytics {
	item := ProductAnalytics{Warnings: []string{}}
	switch {
	case p != nil && wb != nil:
		item.DataSource = SourceMerged
	case p != nil:
		item.DataSource = SourceLocalOnly
	default:
		item.DataSource = SourceRemoteOnly
	}

	if p != nil {
		id := p.ID
		item.ProductID = &id
		item.Name = p.Name
		item.WbArticle = p.ArticleKey()
		item.Brand = p.Brand
		item.Category = p.Category
		price := p.Price
		item.LocalPrice = &price
		item.PurchasePrice = p.PurchasePrice
		item.LogisticsCost = p.LogisticsCost
		item.MarketingCost = p.MarketingCost
		item.OtherExpenses = p.OtherExpenses
		item.LocalStock = p.StockQuantity
	}
	if wb != nil {
		id := wb.ID
		item.WbProductID = &id
		item.VendorCode = wb.VendorCode
		if item.Name == "" {
			item.Name = wb.Name
		}
		if item.Brand == "" {
			item.Brand = wb.Brand
		}
		if item.Category == "" {
			item.Category = wb.Category
		}
		item.WbPrice = wb.Price
		if wb.PriceWithDiscount != nil {
			item.WbDiscountPrice = wb.PriceWithDiscount
		} else {
			item.WbDiscountPrice = wb.SalePrice
		}
		item.WbStock = wb.TotalQuantity
		if item.WbArticle == "" {
			if wb.NmID != nil {
				item.WbArticle = strconv.FormatInt(*wb.NmID, 10)
			} else {
				item.WbArticle = wb.VendorCode
			}
		}
	}
	return item
}
