package services

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// Header synonyms cover the export formats sellers actually upload: plain
// English column names plus the Russian WB report headings.
var (
	nameHeaders    = []string{"name", "название", "товар"}
	articleHeaders = []string{
		"wb_article", "артикулwb", "артикул", "артикул поставщика", "vendor code",
		"vendorcode", "код номенклатуры", "nm_id", "nm",
	}
	supplierArticleHeaders = []string{"supplier_article", "артикулпоставщика"}
	categoryHeaders        = []string{"category", "категория", "предмет"}
	brandHeaders           = []string{"brand", "бренд"}
	stockHeaders           = []string{"stock", "остаток", "stock_quantity", "количество", "кол-во", "колво"}
	priceHeaders           = []string{
		"price", "продажная цена", "цена", "цена розничная",
		"цена розничная с учетом согласованной скидки",
		"вайлдберриз реализовал товар (пр)",
		"выручка", "revenue",
	}
	purchaseHeaders = []string{"purchase price", "закупка", "purchase_price", "закупочная цена"}
	logisticsHeaders = []string{
		"logistics", "логистика", "logistics_cost", "услуги по доставке товара покупателю",
		"возмещение издержек по перевозке/по складским операциям с товаром",
	}
	marketingHeaders = []string{"marketing", "маркетинг", "marketing_cost", "реклама"}
	otherHeaders     = []string{"other", "прочие", "other_expenses", "прочие расходы", "штрафы", "общая сумма штрафов"}
)

// ImportResult summarizes one spreadsheet import.
type ImportResult struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	DryRun   bool     `json:"dryRun,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService loads cost-sheet rows from an Excel upload into the products
// table, matching existing rows by WB article.
type ImportService struct {
	DB *sql.DB
}

// ImportFromExcel reads the first sheet. Rows with neither a name nor an
// article are skipped; missing cost columns raise per-row warnings but still
// import. With dryRun set, nothing is written and the counts report what
// would have happened.
func (s *ImportService) ImportFromExcel(r io.Reader, dryRun bool) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("the Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	result := &ImportResult{DryRun: dryRun}
	if len(rows) == 0 {
		return result, nil
	}

	headerMap := buildHeaderMap(rows[0])
	for i, row := range rows[1:] {
		rowNum := i + 2
		name := getString(row, headerMap, nameHeaders)
		wbArticle := getString(row, headerMap, articleHeaders)
		if name == "" && wbArticle == "" {
			result.Skipped++
			continue
		}

		var product *models.Product
		if wbArticle != "" {
			existing, err := models.GetProductByWbArticle(s.DB, wbArticle)
			if err != nil && err != sql.ErrNoRows {
				return nil, err
			}
			product = existing
		}
		isNew := product == nil
		if isNew {
			product = &models.Product{}
		}

		if name != "" {
			product.Name = name
		}
		product.WbArticle = wbArticle
		if v := getString(row, headerMap, supplierArticleHeaders); v != "" {
			product.SupplierArticle = v
		}
		if v := getString(row, headerMap, categoryHeaders); v != "" {
			product.Category = v
		}
		if v := getString(row, headerMap, brandHeaders); v != "" {
			product.Brand = v
		}
		if v := getInteger(row, headerMap, stockHeaders); v != nil {
			product.StockQuantity = v
		}
		if product.Name == "" && wbArticle != "" {
			product.Name = "Item " + wbArticle
		}

		price := getDecimal(row, headerMap, priceHeaders)
		if price != nil {
			if !price.IsPositive() {
				result.Errors = append(result.Errors,
					fmt.Sprintf("row %d: price must be greater than zero", rowNum))
				result.Skipped++
				continue
			}
			product.Price = *price
		} else if product.Price.IsZero() {
			product.Price = decimal.NewFromInt(1)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: no price given, defaulted to 1", rowNum))
		}

		product.PurchasePrice = importCost(row, headerMap, purchaseHeaders, "purchase price", rowNum, result)
		product.LogisticsCost = importCost(row, headerMap, logisticsHeaders, "logistics cost", rowNum, result)
		product.MarketingCost = importCost(row, headerMap, marketingHeaders, "marketing costs", rowNum, result)
		product.OtherExpenses = importCost(row, headerMap, otherHeaders, "other expenses", rowNum, result)

		if !dryRun {
			if _, err := models.SaveProduct(s.DB, product); err != nil {
				return nil, fmt.Errorf("saving row %d: %w", rowNum, err)
			}
		}
		if isNew {
			result.Created++
		} else {
			result.Updated++
		}
	}

	logger.L.Info("Excel import finished",
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped,
		"warnings", len(result.Warnings), "errors", len(result.Errors), "dryRun", dryRun)
	return result, nil
}

func importCost(row []string, headerMap map[string]int, keys []string, label string, rowNum int, result *ImportResult) *decimal.Decimal {
	value := getDecimal(row, headerMap, keys)
	if value == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("row %d: %s is not filled in", rowNum, label))
	}
	return value
}

// buildHeaderMap maps normalized header text to column index. First column
// wins when a heading repeats.
func buildHeaderMap(header []string) map[string]int {
	headerMap := make(map[string]int)
	for i, cell := range header {
		key := normalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, exists := headerMap[key]; !exists {
			headerMap[key] = i
		}
	}
	return headerMap
}

// normalizeHeader lowercases and keeps only Latin and Cyrillic letters plus
// digits, so "Артикул WB" and "артикулwb" match the same column.
func normalizeHeader(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'а' && r <= 'я', r == 'ё':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func columnIndex(headerMap map[string]int, keys []string) (int, bool) {
	for _, key := range keys {
		if idx, ok := headerMap[normalizeHeader(key)]; ok {
			return idx, true
		}
	}
	return 0, false
}

// getString reads a cell, trimming spreadsheet artifacts such as a trailing
// ".0" or ",0" left by numeric formatting.
func getString(row []string, headerMap map[string]int, keys []string) string {
	idx, ok := columnIndex(headerMap, keys)
	if !ok || idx >= len(row) {
		return ""
	}
	value := strings.TrimSpace(row[idx])
	if strings.HasSuffix(value, ".0") || strings.HasSuffix(value, ",0") {
		value = value[:len(value)-2]
	}
	return value
}

func getInteger(row []string, headerMap map[string]int, keys []string) *int {
	idx, ok := columnIndex(headerMap, keys)
	if !ok || idx >= len(row) {
		return nil
	}
	normalized := cleanNumeric(row[idx])
	if normalized == "" {
		return nil
	}
	if dot := strings.IndexByte(normalized, '.'); dot >= 0 {
		normalized = normalized[:dot]
	}
	n, err := strconv.Atoi(normalized)
	if err != nil {
		return nil
	}
	return &n
}

func getDecimal(row []string, headerMap map[string]int, keys []string) *decimal.Decimal {
	idx, ok := columnIndex(headerMap, keys)
	if !ok || idx >= len(row) {
		return nil
	}
	normalized := cleanNumeric(row[idx])
	if normalized == "" {
		return nil
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil
	}
	rounded := d.Round(2)
	return &rounded
}

func cleanNumeric(value string) string {
	replacer := strings.NewReplacer(" ", "", " ", "", "%", "", ",", ".")
	return strings.TrimSpace(replacer.Replace(value))
}
