package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// ProductIssue points at one field that needs attention, with a concrete
// suggestion. Blocking issues prevent margin computation entirely.
type ProductIssue struct {
	Field      string `json:"field"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
	Blocking   bool   `json:"blocking"`
}

// ProductValidation is the per-product slice of the validation report.
type ProductValidation struct {
	ProductID          *int64         `json:"productId,omitempty"`
	WbProductID        *int64         `json:"wbProductId,omitempty"`
	Name               string         `json:"name,omitempty"`
	WbArticle          string         `json:"wbArticle,omitempty"`
	DataSource         DataSource     `json:"dataSource"`
	RequiresCorrection bool           `json:"requiresCorrection"`
	Issues             []ProductIssue `json:"issues"`
}

// BuildValidationReport lists, for every item that requires correction, the
// fields to fix and how. Items with no issues are omitted.
func (e *Engine) BuildValidationReport(products []models.Product, wbProducts []models.WbProduct, includeWithoutWb bool, minMarginPercent *decimal.Decimal) []ProductValidation {
	report := e.BuildReport(products, wbProducts, ReportOptions{
		IncludeWithoutWb:    includeWithoutWb,
		MinMarginPercent:    minMarginPercent,
		IncludeUnprofitable: true,
	})

	validations := []ProductValidation{}
	for _, item := range report.AllItems {
		issues := collectIssues(&item)
		if len(issues) == 0 {
			continue
		}
		validations = append(validations, ProductValidation{
			ProductID:          item.ProductID,
			WbProductID:        item.WbProductID,
			Name:               item.Name,
			WbArticle:          item.WbArticle,
			DataSource:         item.DataSource,
			RequiresCorrection: item.RequiresCorrection,
			Issues:             issues,
		})
	}
	return validations
}

func collectIssues(item *ProductAnalytics) []ProductIssue {
	var issues []ProductIssue

	switch item.DataSource {
	case SourceLocalOnly:
		issues = append(issues, ProductIssue{
			Field:      "wbData",
			Reason:     "No WB listing matched this article.",
			Suggestion: "Check the WB article against the seller cabinet or sync the WB catalog.",
		})
	case SourceRemoteOnly:
		issues = append(issues, ProductIssue{
			Field:      "excelData",
			Reason:     "No local cost data matched this WB card.",
			Suggestion: "Upload a cost sheet row with article " + item.WbArticle + ".",
		})
	}

	if item.PurchasePrice == nil {
		suggestion := "Fill in the purchase price."
		if sale := item.SalePrice(); sale != nil && sale.IsPositive() {
			approx := sale.Mul(decimal.NewFromFloat(0.6)).Round(2)
			suggestion = fmt.Sprintf("Fill in the purchase price; around 60%% of the sale price would be %s.", approx.StringFixed(2))
		}
		issues = append(issues, ProductIssue{
			Field:      "purchasePrice",
			Reason:     "Purchase price is missing, margin cannot be trusted.",
			Suggestion: suggestion,
			Blocking:   true,
		})
	}
	if item.LogisticsCost == nil {
		issues = append(issues, ProductIssue{
			Field:      "logisticsCost",
			Reason:     "Logistics cost is missing.",
			Suggestion: "Fill in the per-unit delivery cost.",
		})
	}
	if item.MarketingCost == nil {
		issues = append(issues, ProductIssue{
			Field:      "marketingCost",
			Reason:     "Marketing costs are missing.",
			Suggestion: "Fill in the per-unit advertising spend, or 0 if none.",
		})
	}
	if item.OtherExpenses == nil {
		issues = append(issues, ProductIssue{
			Field:      "otherExpenses",
			Reason:     "Other expenses are missing.",
			Suggestion: "Fill in packaging and commission costs, or 0 if none.",
		})
	}

	if item.WbPrice != nil && item.WbDiscountPrice != nil && item.WbDiscountPrice.GreaterThan(*item.WbPrice) {
		issues = append(issues, ProductIssue{
			Field:      "wbDiscountPrice",
			Reason:     "Discounted price exceeds the base price.",
			Suggestion: "Re-sync the WB catalog; the card data looks stale.",
		})
	}

	if item.Margin != nil && item.NegativeMargin {
		issues = append(issues, ProductIssue{
			Field:      "margin",
			Reason:     "Margin is negative at the current price.",
			Suggestion: "Raise the price or cut costs; see the price recommendations.",
		})
	}
	return issues
}
