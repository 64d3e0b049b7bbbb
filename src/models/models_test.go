package models_test

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/database"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(":memory:")
	t.Cleanup(func() { database.DB.Close() })
	return database.DB
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestProductRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	saved, err := models.SaveProduct(db, &models.Product{
		Name:          "Ceramic mug 350ml",
		WbArticle:     "186961443",
		Brand:         "HomeStyle",
		Category:      "Home",
		Price:         dec(t, "590"),
		PurchasePrice: decPtr(t, "210.50"),
		StockQuantity: intPtr(25),
	})
	if err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("SaveProduct did not assign an id")
	}

	got, err := models.GetProductByID(db, saved.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.Name != "Ceramic mug 350ml" || !got.Price.Equal(dec(t, "590")) {
		t.Fatalf("unexpected product after insert: %+v", got)
	}
	if got.PurchasePrice == nil || !got.PurchasePrice.Equal(dec(t, "210.50")) {
		t.Fatalf("purchase price did not survive the round-trip: %v", got.PurchasePrice)
	}
	if got.LogisticsCost != nil {
		t.Fatalf("absent cost came back non-nil: %v", got.LogisticsCost)
	}
	if got.StockQuantity == nil || *got.StockQuantity != 25 {
		t.Fatalf("stock quantity mismatch: %v", got.StockQuantity)
	}

	byArticle, err := models.GetProductByWbArticle(db, "186961443")
	if err != nil {
		t.Fatalf("GetProductByWbArticle: %v", err)
	}
	if byArticle.ID != saved.ID {
		t.Fatalf("article lookup returned id %d, want %d", byArticle.ID, saved.ID)
	}
}

func TestUpdateProductCostsClearsWithNil(t *testing.T) {
	db := setupTestDB(t)

	saved, err := models.SaveProduct(db, &models.Product{
		Name:          "Plate",
		Price:         dec(t, "450"),
		PurchasePrice: decPtr(t, "200"),
		LogisticsCost: decPtr(t, "40"),
	})
	if err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}

	err = models.UpdateProductCosts(db, saved.ID, decPtr(t, "180"), nil, decPtr(t, "30"), nil)
	if err != nil {
		t.Fatalf("UpdateProductCosts: %v", err)
	}

	got, err := models.GetProductByID(db, saved.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.PurchasePrice == nil || !got.PurchasePrice.Equal(dec(t, "180")) {
		t.Fatalf("purchase price not updated: %v", got.PurchasePrice)
	}
	if got.LogisticsCost != nil {
		t.Fatalf("nil argument did not clear logistics cost: %v", got.LogisticsCost)
	}
	if got.MarketingCost == nil || !got.MarketingCost.Equal(dec(t, "30")) {
		t.Fatalf("marketing cost not set: %v", got.MarketingCost)
	}

	if err := models.UpdateProductCosts(db, saved.ID+100, nil, nil, nil, nil); err != sql.ErrNoRows {
		t.Fatalf("updating a missing product: got %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateProductPriceMissingRow(t *testing.T) {
	db := setupTestDB(t)
	if err := models.UpdateProductPrice(db, 42, dec(t, "100")); err != sql.ErrNoRows {
		t.Fatalf("got %v, want sql.ErrNoRows", err)
	}
}

func TestWbProductLookups(t *testing.T) {
	db := setupTestDB(t)

	saved, err := models.SaveWbProduct(db, &models.WbProduct{
		NmID:       int64Ptr(186961443),
		VendorCode: "MUG-001",
		Name:       "Ceramic mug",
		Brand:      "HomeStyle",
		Price:      decPtr(t, "590"),
	})
	if err != nil {
		t.Fatalf("SaveWbProduct: %v", err)
	}

	byNmID, err := models.GetWbProductByNmID(db, 186961443)
	if err != nil {
		t.Fatalf("GetWbProductByNmID: %v", err)
	}
	if byNmID.ID != saved.ID {
		t.Fatalf("nmId lookup returned id %d, want %d", byNmID.ID, saved.ID)
	}

	// Vendor codes match regardless of case.
	byCode, err := models.GetWbProductByVendorCode(db, "mug-001")
	if err != nil {
		t.Fatalf("GetWbProductByVendorCode: %v", err)
	}
	if byCode.ID != saved.ID {
		t.Fatalf("vendor code lookup returned id %d, want %d", byCode.ID, saved.ID)
	}

	if _, err := models.GetWbProductByNmID(db, 999); err != sql.ErrNoRows {
		t.Fatalf("missing nmId lookup: got %v, want sql.ErrNoRows", err)
	}
	if err := models.UpdateWbProductPrice(db, saved.ID+100, dec(t, "700")); err != sql.ErrNoRows {
		t.Fatalf("updating a missing card: got %v, want sql.ErrNoRows", err)
	}
}

func TestSnapshotRangeAndDates(t *testing.T) {
	db := setupTestDB(t)

	err := models.SaveSnapshots(db, []models.DailySnapshot{
		{SnapshotDate: "2026-08-28", WbArticle: "186961443", Price: decPtr(t, "590"), Margin: decPtr(t, "120.00")},
		{SnapshotDate: "2026-08-29", WbArticle: "186961443", Price: decPtr(t, "590"), Margin: decPtr(t, "118.50")},
		{SnapshotDate: "2026-08-29", WbArticle: "186961444", Price: decPtr(t, "450"), StockLocal: intPtr(12)},
	})
	if err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}

	got, err := models.GetSnapshotsBetween(db, "2026-08-29", "2026-08-29")
	if err != nil {
		t.Fatalf("GetSnapshotsBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots in range, want 2", len(got))
	}
	if got[0].WbArticle != "186961443" || got[1].WbArticle != "186961444" {
		t.Fatalf("unexpected range order: %q, %q", got[0].WbArticle, got[1].WbArticle)
	}
	if got[0].Margin == nil || !got[0].Margin.Equal(dec(t, "118.50")) {
		t.Fatalf("margin did not survive the round-trip: %v", got[0].Margin)
	}
	if got[1].StockLocal == nil || *got[1].StockLocal != 12 {
		t.Fatalf("local stock mismatch: %v", got[1].StockLocal)
	}

	dates, err := models.GetSnapshotDates(db)
	if err != nil {
		t.Fatalf("GetSnapshotDates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-08-29" || dates[1] != "2026-08-28" {
		t.Fatalf("unexpected dates: %v", dates)
	}
}
