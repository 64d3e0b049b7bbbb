package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

const mockPayload = `[
  {
    "nm_id": 186961443,
    "vendor_code": "MUG-001",
    "name": "Ceramic mug",
    "brand": "HomeWare",
    "category": "Kitchen",
    "subject": "Mugs",
    "price": 1000,
    "discount": 10,
    "price_with_discount": 900,
    "sale_price": 950,
    "total_quantity": 25
  },
  {
    "nm_id": 186961444,
    "vendor_code": "PLT-002",
    "name": "Dinner plate",
    "brand": "HomeWare",
    "category": "Kitchen",
    "subject": "Plates",
    "price": 500,
    "total_quantity": 3
  }
]`

func mockService(t *testing.T) *WbAPIService {
	t.Helper()
	db := setupTestDB(t)
	path := filepath.Join(t.TempDir(), "wb-mock.json")
	if err := os.WriteFile(path, []byte(mockPayload), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewWbAPIService(db, cache.New(time.Minute, time.Minute), "https://example.invalid", "", path, true)
}

func TestGoodsFromMockDataset(t *testing.T) {
	svc := mockService(t)
	goods, err := svc.Goods(context.Background())
	if err != nil {
		t.Fatalf("loading mock goods: %v", err)
	}
	if len(goods) != 2 {
		t.Fatalf("got %d goods, want 2", len(goods))
	}
	mug := goods[0]
	if mug.NmID == nil || *mug.NmID != 186961443 {
		t.Errorf("nm_id = %v, want 186961443", mug.NmID)
	}
	if mug.PriceWithDiscount == nil || !mug.PriceWithDiscount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("price_with_discount = %v, want 900", mug.PriceWithDiscount)
	}

	// second call must come from the cache even if the file goes away
	if err := os.Remove(svc.MockDataPath); err != nil {
		t.Fatal(err)
	}
	again, err := svc.Goods(context.Background())
	if err != nil || len(again) != 2 {
		t.Errorf("cached goods unavailable after file removal: %v", err)
	}
}

func TestGoodsFilteredOnMockData(t *testing.T) {
	svc := mockService(t)
	ctx := context.Background()

	minPrice := decimal.NewFromInt(600)
	goods, err := svc.GoodsFiltered(ctx, &GoodsFilter{MinPrice: &minPrice})
	if err != nil {
		t.Fatal(err)
	}
	if len(goods) != 1 || goods[0].Name != "Ceramic mug" {
		t.Errorf("min price filter returned %+v, want only the mug", goods)
	}

	goods, err = svc.GoodsFiltered(ctx, &GoodsFilter{Subject: "plates"})
	if err != nil {
		t.Fatal(err)
	}
	if len(goods) != 1 || goods[0].Name != "Dinner plate" {
		t.Errorf("subject filter is case-insensitive, got %+v", goods)
	}

	threshold := 10
	goods, err = svc.GoodsFiltered(ctx, &GoodsFilter{LowStockThreshold: &threshold})
	if err != nil {
		t.Fatal(err)
	}
	if len(goods) != 1 || goods[0].Name != "Dinner plate" {
		t.Errorf("low stock filter should keep only the plate, got %+v", goods)
	}
}

func TestSyncUpsertsByNmID(t *testing.T) {
	svc := mockService(t)
	ctx := context.Background()

	result, err := svc.Sync(ctx)
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 {
		t.Errorf("first sync = %+v, want 2 created", result)
	}

	result, err = svc.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if result.Created != 0 || result.Updated != 2 {
		t.Errorf("second sync = %+v, want 2 updated", result)
	}

	all, err := models.GetAllWbProducts(svc.DB)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d wb products after two syncs, want 2", len(all))
	}
	mug, err := models.GetWbProductByNmID(svc.DB, 186961443)
	if err != nil {
		t.Fatal(err)
	}
	if mug.Price == nil || !mug.Price.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("mug price = %v, want 1000", mug.Price)
	}
	if mug.VendorCode != "MUG-001" {
		t.Errorf("mug vendor code = %q, want MUG-001", mug.VendorCode)
	}
}

func TestPingReportsMockDataset(t *testing.T) {
	svc := mockService(t)
	payload, err := svc.Ping(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if payload["mock"] != true {
		t.Errorf("ping payload should mark mock mode, got %+v", payload)
	}
	if payload["items"] != 2 {
		t.Errorf("ping items = %v, want 2", payload["items"])
	}
}

func TestRuntimeTogglesFlipMockServing(t *testing.T) {
	svc := mockService(t)
	if !svc.shouldUseMock() {
		t.Fatal("mock mode with no token must serve mock data")
	}
	svc.SetMockMode(false)
	if !svc.shouldUseMock() {
		t.Error("without a token the service must stay on mock data")
	}
	svc.SetToken("real-token")
	if svc.shouldUseMock() {
		t.Error("live mode with a token must not serve mock data")
	}
	svc.SetMockMode(true)
	if !svc.shouldUseMock() {
		t.Error("mock mode wins over a configured token")
	}
}
