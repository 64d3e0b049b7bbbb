package analytics

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

var csvHeader = []string{
	"Article", "Name", "Source", "Margin", "Margin %",
	"WB Price", "Discounted Price", "Purchase", "Logistics", "Marketing", "Other",
	"Local Stock", "WB Stock",
}

// ExportProfitableCSV renders the profitable bucket as a semicolon-separated
// CSV payload. Decimal fields are fixed at 2 digits, unknown values stay
// empty.
func (e *Engine) ExportProfitableCSV(products []models.Product, wbProducts []models.WbProduct, includeWithoutWb bool, minMarginPercent *decimal.Decimal) []byte {
	report := e.BuildReport(products, wbProducts, ReportOptions{
		IncludeWithoutWb:    includeWithoutWb,
		MinMarginPercent:    minMarginPercent,
		IncludeUnprofitable: false,
	})

	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ";"))
	b.WriteByte('\n')
	for _, item := range report.Profitable {
		fields := []string{
			csvText(item.WbArticle),
			csvText(item.Name),
			csvText(sourceLabel(item.DataSource)),
			csvDecimal(item.Margin),
			csvDecimal(item.MarginPercent),
			csvDecimal(item.WbPrice),
			csvDecimal(item.WbDiscountPrice),
			csvDecimal(item.PurchasePrice),
			csvDecimal(item.LogisticsCost),
			csvDecimal(item.MarketingCost),
			csvDecimal(item.OtherExpenses),
			csvInt(item.LocalStock),
			csvInt(item.WbStock),
		}
		b.WriteString(strings.Join(fields, ";"))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func sourceLabel(source DataSource) string {
	switch source {
	case SourceMerged:
		return "remote + local"
	case SourceLocalOnly:
		return "local"
	case SourceRemoteOnly:
		return "remote"
	default:
		return ""
	}
}

func csvText(value string) string {
	escaped := strings.ReplaceAll(value, `"`, `""`)
	if strings.ContainsAny(value, ";\"\n") {
		return `"` + escaped + `"`
	}
	return escaped
}

func csvDecimal(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.StringFixed(2)
}

func csvInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}
