package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// Engine holds the policy knobs that apply to every report: the margin
// percent threshold used when a request does not pick its own, and whether a
// negative margin raises a warning on top of the flag.
type Engine struct {
	DefaultMinMarginPercent decimal.Decimal
	FilterNegativeMargin    bool
}

// ReportOptions are the per-request switches of BuildReport.
type ReportOptions struct {
	// IncludeWithoutWb keeps unmatched rows from both sides in the report.
	IncludeWithoutWb bool
	// MinMarginPercent overrides the engine default when set.
	MinMarginPercent *decimal.Decimal
	// IncludeUnprofitable controls whether AllItems carries the full set or
	// only the profitable bucket.
	IncludeUnprofitable bool
}

// Report is the assembled analytics view.
type Report struct {
	AppliedMinMarginPercent decimal.Decimal    `json:"appliedMinMarginPercent"`
	Profitable              []ProductAnalytics `json:"profitable"`
	RequiresAttention       []ProductAnalytics `json:"requiresAttention"`
	AllItems                []ProductAnalytics `json:"allItems"`
	ProfitableCount         int                `json:"profitableCount"`
	RequiresAttentionCount  int                `json:"requiresAttentionCount"`
	TotalProducts           int                `json:"totalProducts"`
}

// BuildReport reconciles the two catalogs, computes margins, classifies every
// item and assembles the sorted buckets.
func (e *Engine) BuildReport(products []models.Product, wbProducts []models.WbProduct, opts ReportOptions) *Report {
	threshold := e.DefaultMinMarginPercent
	if opts.MinMarginPercent != nil {
		threshold = *opts.MinMarginPercent
	}

	items := Reconcile(products, wbProducts, opts.IncludeWithoutWb)
	for i := range items {
		computeMargins(&items[i])
		classify(&items[i], threshold, e.FilterNegativeMargin)
	}
	sortItems(items)

	report := &Report{
		AppliedMinMarginPercent: threshold,
		Profitable:              []ProductAnalytics{},
		RequiresAttention:       []ProductAnalytics{},
	}
	for _, item := range items {
		if item.Profitable {
			report.Profitable = append(report.Profitable, item)
		}
		if item.RequiresCorrection {
			report.RequiresAttention = append(report.RequiresAttention, item)
		}
	}
	report.ProfitableCount = len(report.Profitable)
	report.RequiresAttentionCount = len(report.RequiresAttention)
	report.TotalProducts = len(items)
	if opts.IncludeUnprofitable {
		report.AllItems = items
	} else {
		report.AllItems = report.Profitable
	}
	if report.AllItems == nil {
		report.AllItems = []ProductAnalytics{}
	}
	return report
}

// sortItems orders the report: profitable first, then clean items before
// flagged ones, then margin descending with unknown margins last, then name.
func sortItems(items []ProductAnalytics) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.Profitable != b.Profitable {
			return a.Profitable
		}
		if a.RequiresCorrection != b.RequiresCorrection {
			return !a.RequiresCorrection
		}
		if c := compareMarginDesc(a.Margin, b.Margin); c != 0 {
			return c < 0
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func compareMarginDesc(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return b.Cmp(*a)
	}
}
