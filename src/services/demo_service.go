package services

import (
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// DemoService fills demo cost data so the analytics screens have something
// to show before a real cost sheet is uploaded. Handlers only expose it in
// mock mode.
type DemoService struct {
	DB *sql.DB
}

// AutoFillRequest describes how to derive missing cost fields: percent-of-
// price for purchase and marketing, fixed amounts for logistics and other.
// Nil fields are left alone.
type AutoFillRequest struct {
	OnlyIfMissing           bool             `json:"onlyIfMissing"`
	Limit                   int              `json:"limit,omitempty"`
	PurchasePercentOfPrice  *decimal.Decimal `json:"purchasePercentOfPrice,omitempty"`
	LogisticsFixed          *decimal.Decimal `json:"logisticsFixed,omitempty"`
	MarketingPercentOfPrice *decimal.Decimal `json:"marketingPercentOfPrice,omitempty"`
	OtherFixed              *decimal.Decimal `json:"otherFixed,omitempty"`
}

// AutoFillItem records which fields were touched on one product.
type AutoFillItem struct {
	ProductID     int64    `json:"productId"`
	Name          string   `json:"name,omitempty"`
	WbArticle     string   `json:"wbArticle,omitempty"`
	UpdatedFields []string `json:"updatedFields"`
}

// AutoFillResult lists everything an auto-fill run changed.
type AutoFillResult struct {
	AffectedCount int            `json:"affectedCount"`
	Items         []AutoFillItem `json:"items"`
}

// AutoFillMissingCosts derives cost fields from each product's price per the
// request. Products without a price are skipped.
func (s *DemoService) AutoFillMissingCosts(req *AutoFillRequest) (*AutoFillResult, error) {
	products, err := models.GetAllProducts(s.DB)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = len(products)
	}

	result := &AutoFillResult{Items: []AutoFillItem{}}
	for i := range products {
		p := &products[i]
		var updated []string

		if req.PurchasePercentOfPrice != nil && (!req.OnlyIfMissing || p.PurchasePrice == nil) {
			v := percentageOf(p.Price, *req.PurchasePercentOfPrice)
			p.PurchasePrice = &v
			updated = append(updated, "purchasePrice")
		}
		if req.LogisticsFixed != nil && (!req.OnlyIfMissing || p.LogisticsCost == nil) {
			v := *req.LogisticsFixed
			p.LogisticsCost = &v
			updated = append(updated, "logisticsCost")
		}
		if req.MarketingPercentOfPrice != nil && (!req.OnlyIfMissing || p.MarketingCost == nil) {
			v := percentageOf(p.Price, *req.MarketingPercentOfPrice)
			p.MarketingCost = &v
			updated = append(updated, "marketingCost")
		}
		if req.OtherFixed != nil && (!req.OnlyIfMissing || p.OtherExpenses == nil) {
			v := *req.OtherFixed
			p.OtherExpenses = &v
			updated = append(updated, "otherExpenses")
		}

		if len(updated) == 0 {
			continue
		}
		if _, err := models.SaveProduct(s.DB, p); err != nil {
			return nil, fmt.Errorf("saving product %d: %w", p.ID, err)
		}
		result.AffectedCount++
		result.Items = append(result.Items, AutoFillItem{
			ProductID:     p.ID,
			Name:          p.Name,
			WbArticle:     p.WbArticle,
			UpdatedFields: updated,
		})
		if result.AffectedCount >= limit {
			break
		}
	}
	return result, nil
}

// FillRandomAll makes both catalogs overlap: every WB card gets a local
// product with random costs, every local product gets a WB card with random
// prices and stock. Returns the number of rows touched.
func (s *DemoService) FillRandomAll() (int, error) {
	affected := 0

	wbProducts, err := models.GetAllWbProducts(s.DB)
	if err != nil {
		return 0, err
	}
	for i := range wbProducts {
		wb := &wbProducts[i]
		articleKey := wb.VendorCode
		if wb.NmID != nil {
			articleKey = strconv.FormatInt(*wb.NmID, 10)
		}

		var product *models.Product
		if articleKey != "" {
			product, err = models.GetProductByWbArticle(s.DB, articleKey)
			if err != nil && err != sql.ErrNoRows {
				return 0, err
			}
		}
		if product == nil {
			product = &models.Product{
				Name:      wb.Name,
				Brand:     wb.Brand,
				Category:  wb.Category,
				WbArticle: articleKey,
				Price:     firstPrice(wb.PriceWithDiscount, wb.SalePrice, wb.Price),
			}
		}
		randomizeCosts(product)
		if _, err := models.SaveProduct(s.DB, product); err != nil {
			return 0, err
		}
		affected++
	}

	products, err := models.GetAllProducts(s.DB)
	if err != nil {
		return 0, err
	}
	for i := range products {
		p := &products[i]
		article := analytics.NormalizeArticle(p.WbArticle)

		var wb *models.WbProduct
		if article != "" {
			if nm, err := strconv.ParseInt(article, 10, 64); err == nil {
				wb, err = models.GetWbProductByNmID(s.DB, nm)
				if err != nil && err != sql.ErrNoRows {
					return 0, err
				}
			}
			if wb == nil {
				wb, err = models.GetWbProductByVendorCode(s.DB, article)
				if err != nil && err != sql.ErrNoRows {
					return 0, err
				}
			}
		}
		if wb == nil {
			wb = &models.WbProduct{Name: p.Name, Brand: p.Brand, Category: p.Category}
			if nm, err := strconv.ParseInt(article, 10, 64); err == nil {
				wb.NmID = &nm
			} else if article != "" {
				wb.VendorCode = article
			} else {
				wb.VendorCode = fmt.Sprintf("EXC-%d", p.ID)
			}
		}
		randomizeWbCard(wb)
		if _, err := models.SaveWbProduct(s.DB, wb); err != nil {
			return 0, err
		}
		affected++

		if p.WbArticle == "" {
			if wb.NmID != nil {
				p.WbArticle = strconv.FormatInt(*wb.NmID, 10)
			} else {
				p.WbArticle = wb.VendorCode
			}
		}
		randomizeCosts(p)
		if _, err := models.SaveProduct(s.DB, p); err != nil {
			return 0, err
		}
		affected++
	}

	logger.L.Info("demo data filled", "affected", affected)
	return affected, nil
}

// GenerateDemo inserts n matched product/WB card pairs from scratch.
func (s *DemoService) GenerateDemo(n int) (int, error) {
	if n <= 0 {
		n = 10
	}
	created := 0
	for i := 0; i < n; i++ {
		nmID := int64(100000000 + rand.Intn(900000000))
		price := randomPrice()

		wb := &models.WbProduct{
			NmID:       &nmID,
			VendorCode: fmt.Sprintf("DEMO-%d", nmID),
			Name:       fmt.Sprintf("Demo item %d", nmID),
			Brand:      "DemoBrand",
			Category:   "Demo",
			Price:      &price,
		}
		randomizeWbCard(wb)
		if _, err := models.SaveWbProduct(s.DB, wb); err != nil {
			return created, err
		}

		product := &models.Product{
			Name:      wb.Name,
			Brand:     wb.Brand,
			Category:  wb.Category,
			WbArticle: strconv.FormatInt(nmID, 10),
			Price:     price,
		}
		randomizeCosts(product)
		if _, err := models.SaveProduct(s.DB, product); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// DeleteAll wipes both catalogs. Only reachable in mock mode.
func (s *DemoService) DeleteAll() (int64, error) {
	products, err := models.DeleteAllProducts(s.DB)
	if err != nil {
		return 0, err
	}
	wbProducts, err := models.DeleteAllWbProducts(s.DB)
	if err != nil {
		return products, err
	}
	return products + wbProducts, nil
}

func randomizeCosts(p *models.Product) {
	if p.Price.IsZero() {
		p.Price = randomPrice()
	}
	purchase := randPercent(p.Price, 45, 65)
	logistics := randFixed(60, 150)
	marketing := randPercent(p.Price, 5, 15)
	other := randFixed(0, 120)
	p.PurchasePrice = &purchase
	p.LogisticsCost = &logistics
	p.MarketingCost = &marketing
	p.OtherExpenses = &other
}

func randomizeWbCard(wb *models.WbProduct) {
	base := firstPrice(wb.PriceWithDiscount, wb.SalePrice, wb.Price)
	if base.IsZero() {
		base = randomPrice()
		wb.Price = &base
	}
	if wb.Discount == nil {
		d := rand.Intn(30)
		wb.Discount = &d
	}
	if wb.PriceWithDiscount == nil {
		price := base
		if wb.Price != nil {
			price = *wb.Price
		}
		discounted := percentageOf(price, decimal.NewFromInt(int64(100-*wb.Discount)))
		wb.PriceWithDiscount = &discounted
	}
	if wb.SalePrice == nil {
		sale := base
		if wb.Price != nil {
			sale = *wb.Price
		}
		wb.SalePrice = &sale
	}
	if wb.TotalQuantity == nil {
		q := rand.Intn(200)
		wb.TotalQuantity = &q
	}
}

func percentageOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).DivRound(decimal.NewFromInt(100), 2)
}

func firstPrice(values ...*decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return decimal.Zero
}

func randomPrice() decimal.Decimal {
	return decimal.NewFromInt(int64(300 + rand.Intn(4700)))
}

func randFixed(min, max int) decimal.Decimal {
	return decimal.NewFromInt(int64(min + rand.Intn(max-min+1)))
}

func randPercent(base decimal.Decimal, minPct, maxPct int) decimal.Decimal {
	pct := minPct + rand.Intn(maxPct-minPct+1)
	return percentageOf(base, decimal.NewFromInt(int64(pct)))
}
