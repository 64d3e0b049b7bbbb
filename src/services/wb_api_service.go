package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

const mockProductsCacheKey = "wb:mock-products"

// WbGood is one entry of the WB price list payload, shared by the live API
// response and the bundled mock dataset.
type WbGood struct {
	NmID              *int64           `json:"nm_id"`
	VendorCode        string           `json:"vendor_code"`
	Name              string           `json:"name"`
	Vendor            string           `json:"vendor"`
	Brand             string           `json:"brand"`
	Category          string           `json:"category"`
	Subject           string           `json:"subject"`
	Price             *decimal.Decimal `json:"price"`
	Discount          *int             `json:"discount"`
	PriceWithDiscount *decimal.Decimal `json:"price_with_discount"`
	SalePrice         *decimal.Decimal `json:"sale_price"`
	TotalQuantity     *int             `json:"total_quantity"`
	Colors            string           `json:"colors"`
	Sizes             string           `json:"sizes"`
}

// GoodsFilter narrows the goods listing. Zero values mean "no constraint".
type GoodsFilter struct {
	Name              string
	Vendor            string
	Brand             string
	Category          string
	Subject           string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	MinDiscount       *int
	LowStockThreshold *int
}

// SyncResult counts what a catalog sync did.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// WbAPIService talks to the WB seller API, or serves the bundled mock
// dataset when mock mode is on or no token is configured. Mock mode and the
// token can be flipped at runtime.
type WbAPIService struct {
	DB           *sql.DB
	Client       *http.Client
	Cache        *cache.Cache
	BaseURL      string
	MockDataPath string

	mu       sync.RWMutex
	mockMode bool
	token    string
}

func NewWbAPIService(db *sql.DB, c *cache.Cache, baseURL, token, mockDataPath string, mockMode bool) *WbAPIService {
	return &WbAPIService{
		DB:           db,
		Client:       &http.Client{Timeout: 15 * time.Second},
		Cache:        c,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		MockDataPath: mockDataPath,
		mockMode:     mockMode,
		token:        token,
	}
}

func (s *WbAPIService) MockMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mockMode
}

func (s *WbAPIService) SetMockMode(enabled bool) {
	s.mu.Lock()
	s.mockMode = enabled
	s.mu.Unlock()
	logger.L.Info("WB API mock mode changed", "enabled", enabled)
}

func (s *WbAPIService) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.token) != ""
}

func (s *WbAPIService) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	logger.L.Info("WB API token updated", "configured", strings.TrimSpace(token) != "")
}

// shouldUseMock reports whether requests are served from the mock dataset:
// either mock mode is on, or no API token is configured.
func (s *WbAPIService) shouldUseMock() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mockMode || strings.TrimSpace(s.token) == ""
}

// Goods returns the full price list.
func (s *WbAPIService) Goods(ctx context.Context) ([]WbGood, error) {
	if s.shouldUseMock() {
		return s.loadMockProducts()
	}
	return s.fetchGoods(ctx, url.Values{"limit": {"1000"}, "offset": {"0"}})
}

// GoodsFiltered returns the price list narrowed by the filter. The live API
// applies the filter server-side; mock data is filtered here.
func (s *WbAPIService) GoodsFiltered(ctx context.Context, filter *GoodsFilter) ([]WbGood, error) {
	if s.shouldUseMock() {
		goods, err := s.loadMockProducts()
		if err != nil {
			return nil, err
		}
		if filter == nil {
			return goods, nil
		}
		filtered := []WbGood{}
		for _, g := range goods {
			if filter.matches(&g) {
				filtered = append(filtered, g)
			}
		}
		return filtered, nil
	}
	return s.fetchGoods(ctx, filter.queryValues())
}

func (s *WbAPIService) fetchGoods(ctx context.Context, query url.Values) ([]WbGood, error) {
	endpoint := s.BaseURL + "/api/v2/list/goods/filter"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var payload struct {
		Data []WbGood `json:"data"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetching goods from WB API: %w", err)
	}
	return payload.Data, nil
}

// Ping checks connectivity. In mock mode it reports the mock dataset size
// instead of hitting the network.
func (s *WbAPIService) Ping(ctx context.Context) (map[string]interface{}, error) {
	if s.shouldUseMock() {
		goods, err := s.loadMockProducts()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"mock":      true,
			"message":   "Serving the bundled WB API mock dataset",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"items":     len(goods),
		}, nil
	}
	var payload map[string]interface{}
	if err := s.getJSON(ctx, s.BaseURL+"/ping", &payload); err != nil {
		return nil, fmt.Errorf("pinging WB API: %w", err)
	}
	return payload, nil
}

// SellerInfo returns the seller profile from the common WB API.
func (s *WbAPIService) SellerInfo(ctx context.Context) (map[string]interface{}, error) {
	if s.shouldUseMock() {
		return map[string]interface{}{
			"company":   "Demo Seller LLC",
			"inn":       "0000000000",
			"mock":      true,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	var payload map[string]interface{}
	if err := s.getJSON(ctx, "https://common-api.wildberries.ru/api/v1/seller-info", &payload); err != nil {
		return nil, fmt.Errorf("fetching seller info: %w", err)
	}
	return payload, nil
}

// Sync upserts the fetched price list into the local wb_products table,
// matching existing cards by nm_id first, vendor code second.
func (s *WbAPIService) Sync(ctx context.Context) (*SyncResult, error) {
	goods, err := s.Goods(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Total: len(goods)}
	for i := range goods {
		g := &goods[i]
		var existing *models.WbProduct
		if g.NmID != nil {
			existing, err = models.GetWbProductByNmID(s.DB, *g.NmID)
			if err != nil && err != sql.ErrNoRows {
				return nil, err
			}
		}
		if existing == nil && g.VendorCode != "" {
			existing, err = models.GetWbProductByVendorCode(s.DB, g.VendorCode)
			if err != nil && err != sql.ErrNoRows {
				return nil, err
			}
		}

		if existing != nil {
			applyGood(existing, g)
			if _, err := models.SaveWbProduct(s.DB, existing); err != nil {
				return nil, fmt.Errorf("updating wb product during sync: %w", err)
			}
			result.Updated++
		} else {
			fresh := &models.WbProduct{}
			applyGood(fresh, g)
			fresh.NmID = g.NmID
			fresh.VendorCode = g.VendorCode
			fresh.Vendor = g.Vendor
			fresh.Subject = g.Subject
			fresh.Colors = g.Colors
			fresh.Sizes = g.Sizes
			if _, err := models.SaveWbProduct(s.DB, fresh); err != nil {
				return nil, fmt.Errorf("inserting wb product during sync: %w", err)
			}
			result.Created++
		}
	}
	logger.L.Info("WB catalog sync finished", "total", result.Total, "created", result.Created, "updated", result.Updated)
	return result, nil
}

// applyGood copies the fields a sync refreshes on every run.
func applyGood(p *models.WbProduct, g *WbGood) {
	if g.Name != "" {
		p.Name = g.Name
	}
	if g.Brand != "" {
		p.Brand = g.Brand
	}
	if g.Category != "" {
		p.Category = g.Category
	}
	if g.Price != nil {
		p.Price = g.Price
	}
	if g.Discount != nil {
		p.Discount = g.Discount
	}
	if g.PriceWithDiscount != nil {
		p.PriceWithDiscount = g.PriceWithDiscount
	}
	if g.SalePrice != nil {
		p.SalePrice = g.SalePrice
	}
	if g.TotalQuantity != nil {
		p.TotalQuantity = g.TotalQuantity
	}
}

func (s *WbAPIService) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("WB API returned status %d for %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// loadMockProducts reads and caches the bundled mock dataset.
func (s *WbAPIService) loadMockProducts() ([]WbGood, error) {
	if cached, found := s.Cache.Get(mockProductsCacheKey); found {
		return cached.([]WbGood), nil
	}
	if strings.TrimSpace(s.MockDataPath) == "" {
		return nil, fmt.Errorf("WB API mock data path is not configured")
	}
	data, err := os.ReadFile(s.MockDataPath)
	if err != nil {
		return nil, fmt.Errorf("reading WB API mock data: %w", err)
	}
	var goods []WbGood
	if err := json.Unmarshal(data, &goods); err != nil {
		return nil, fmt.Errorf("parsing WB API mock data: %w", err)
	}
	s.Cache.Set(mockProductsCacheKey, goods, cache.NoExpiration)
	return goods, nil
}

func (f *GoodsFilter) matches(g *WbGood) bool {
	if !containsFold(g.Name, f.Name) || !containsFold(g.Vendor, f.Vendor) ||
		!containsFold(g.Brand, f.Brand) || !containsFold(g.Category, f.Category) ||
		!containsFold(g.Subject, f.Subject) {
		return false
	}
	if f.MinPrice != nil && (g.Price == nil || g.Price.LessThan(*f.MinPrice)) {
		return false
	}
	if f.MaxPrice != nil && (g.Price == nil || g.Price.GreaterThan(*f.MaxPrice)) {
		return false
	}
	if f.MinDiscount != nil && (g.Discount == nil || *g.Discount < *f.MinDiscount) {
		return false
	}
	if f.LowStockThreshold != nil && (g.TotalQuantity == nil || *g.TotalQuantity >= *f.LowStockThreshold) {
		return false
	}
	return true
}

func (f *GoodsFilter) queryValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("name", f.Name)
	set("vendor", f.Vendor)
	set("brand", f.Brand)
	set("category", f.Category)
	set("subject", f.Subject)
	if f.MinPrice != nil {
		values.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		values.Set("maxPrice", f.MaxPrice.String())
	}
	if f.MinDiscount != nil {
		values.Set("minDiscount", fmt.Sprint(*f.MinDiscount))
	}
	if f.LowStockThreshold != nil {
		values.Set("lowStockThreshold", fmt.Sprint(*f.LowStockThreshold))
	}
	return values
}

func containsFold(haystack, needle string) bool {
	if strings.TrimSpace(needle) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
