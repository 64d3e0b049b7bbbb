package services

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

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

func buildWorkbook(t *testing.T, header []interface{}, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("writing row %d: %v", i+2, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("flushing workbook: %v", err)
	}
	return buf
}

func TestImportFromExcelCreatesProducts(t *testing.T) {
	db := setupTestDB(t)
	svc := &ImportService{DB: db}

	buf := buildWorkbook(t,
		[]interface{}{"Name", "Артикул WB", "Цена", "Закупка", "Логистика", "Маркетинг", "Прочие", "Остаток"},
		[]interface{}{"Mug", "00186961443", "1000", "600", "100", "50", "50", "25"},
		[]interface{}{"Plate", "186961444.0", "500,50", "", "80", "", "", "10"},
	)

	result, err := svc.ImportFromExcel(buf, false)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || result.Skipped != 0 {
		t.Errorf("counts = %+v, want 2 created", result)
	}

	mug, err := models.GetProductByWbArticle(db, "00186961443")
	if err != nil {
		t.Fatalf("mug not imported: %v", err)
	}
	if mug.Price.StringFixed(2) != "1000.00" {
		t.Errorf("mug price = %s, want 1000.00", mug.Price)
	}
	if mug.PurchasePrice == nil || mug.PurchasePrice.StringFixed(2) != "600.00" {
		t.Errorf("mug purchase = %v, want 600.00", mug.PurchasePrice)
	}
	if mug.StockQuantity == nil || *mug.StockQuantity != 25 {
		t.Errorf("mug stock = %v, want 25", mug.StockQuantity)
	}

	// the ".0" numeric artifact must not survive into the stored article
	plate, err := models.GetProductByWbArticle(db, "186961444")
	if err != nil {
		t.Fatalf("plate not imported under cleaned article: %v", err)
	}
	if plate.Price.StringFixed(2) != "500.50" {
		t.Errorf("plate price = %s, want 500.50 from the comma decimal", plate.Price)
	}
	if plate.PurchasePrice != nil {
		t.Errorf("plate purchase should stay unknown, got %s", plate.PurchasePrice)
	}

	foundPurchaseWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "row 3") && strings.Contains(w, "purchase") {
			foundPurchaseWarning = true
		}
	}
	if !foundPurchaseWarning {
		t.Errorf("missing purchase warning for row 3, got %v", result.Warnings)
	}
}

func TestImportFromExcelUpdatesExisting(t *testing.T) {
	db := setupTestDB(t)
	svc := &ImportService{DB: db}

	first := buildWorkbook(t,
		[]interface{}{"name", "wb_article", "price"},
		[]interface{}{"Old Name", "111", "100"},
	)
	if _, err := svc.ImportFromExcel(first, false); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second := buildWorkbook(t,
		[]interface{}{"name", "wb_article", "price"},
		[]interface{}{"New Name", "111", "200"},
	)
	result, err := svc.ImportFromExcel(second, false)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Errorf("counts = %+v, want 1 updated", result)
	}

	p, err := models.GetProductByWbArticle(db, "111")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "New Name" || p.Price.StringFixed(2) != "200.00" {
		t.Errorf("product not updated: %+v", p)
	}
}

func TestImportFromExcelRejectsNonPositivePrice(t *testing.T) {
	db := setupTestDB(t)
	svc := &ImportService{DB: db}

	buf := buildWorkbook(t,
		[]interface{}{"name", "wb_article", "price"},
		[]interface{}{"Freebie", "42", "0"},
	)
	result, err := svc.ImportFromExcel(buf, false)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Skipped != 1 || result.Created != 0 {
		t.Errorf("counts = %+v, want the zero-price row skipped", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "greater than zero") {
		t.Errorf("errors = %v, want a price error", result.Errors)
	}
}

func TestImportFromExcelSkipsBlankRows(t *testing.T) {
	db := setupTestDB(t)
	svc := &ImportService{DB: db}

	buf := buildWorkbook(t,
		[]interface{}{"name", "wb_article", "price"},
		[]interface{}{"", "", ""},
		[]interface{}{"Real", "7", "10"},
	)
	result, err := svc.ImportFromExcel(buf, false)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Skipped != 1 || result.Created != 1 {
		t.Errorf("counts = %+v, want 1 skipped and 1 created", result)
	}
}

func TestImportFromExcelDryRun(t *testing.T) {
	db := setupTestDB(t)
	svc := &ImportService{DB: db}

	buf := buildWorkbook(t,
		[]interface{}{"name", "wb_article", "price"},
		[]interface{}{"Ghost", "99", "100"},
	)
	result, err := svc.ImportFromExcel(buf, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !result.DryRun || result.Created != 1 {
		t.Errorf("dry run counts = %+v, want 1 would-be creation", result)
	}
	if _, err := models.GetProductByWbArticle(db, "99"); err != sql.ErrNoRows {
		t.Errorf("dry run must not write, lookup err = %v", err)
	}
}
