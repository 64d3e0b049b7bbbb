package analytics

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	d := dec(t, s)
	return &d
}

func int64Ptr(v int64) *int64 { return &v }

func TestNormalizeArticle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  186961443 ", "186961443"},
		{"00186961443", "186961443"},
		{"186 961 443", "186961443"},
		{"ABC-001", "ABC-001"},
		{"  sku 42 ", "sku42"},
		{"", ""},
		{"   ", ""},
		{"99999999999999999999999", "99999999999999999999999"},
	}
	for _, c := range cases {
		if got := NormalizeArticle(c.in); got != c.want {
			t.Errorf("NormalizeArticle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeVendorCode(t *testing.T) {
	if got := NormalizeVendorCode("  ABC 001 "); got != "abc001" {
		t.Errorf("NormalizeVendorCode = %q, want %q", got, "abc001")
	}
}

func testEngine() *Engine {
	return &Engine{DefaultMinMarginPercent: decimal.Zero, FilterNegativeMargin: true}
}

func fullCostProduct(t *testing.T, name, article string) models.Product {
	return models.Product{
		ID:            1,
		Name:          name,
		WbArticle:     article,
		Price:         dec(t, "1000"),
		PurchasePrice: decPtr(t, "600"),
		LogisticsCost: decPtr(t, "100"),
		MarketingCost: decPtr(t, "50"),
		OtherExpenses: decPtr(t, "50"),
	}
}

func TestReconcileMatchesByNumericArticle(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Demo", "00186961443")}
	wbProducts := []models.WbProduct{{
		ID:    10,
		NmID:  int64Ptr(186961443),
		Name:  "Demo WB",
		Price: decPtr(t, "1000"),
	}}

	items := Reconcile(products, wbProducts, true)
	if len(items) != 1 {
		t.Fatalf("got %d items, want exactly one merged item", len(items))
	}
	item := items[0]
	if item.DataSource != SourceMerged {
		t.Errorf("data source = %s, want %s", item.DataSource, SourceMerged)
	}
	if item.ProductID == nil || item.WbProductID == nil {
		t.Error("merged item must reference both records")
	}
	if item.Name != "Demo" {
		t.Errorf("local name should win, got %q", item.Name)
	}
}

func TestReconcileMatchesByVendorCode(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Demo", "ABC-001")}
	wbProducts := []models.WbProduct{{ID: 10, VendorCode: "abc-001", Price: decPtr(t, "900")}}

	items := Reconcile(products, wbProducts, true)
	if len(items) != 1 || items[0].DataSource != SourceMerged {
		t.Fatalf("expected one merged item, got %+v", items)
	}
}

func TestReconcileUnmatchedSides(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Local Only", "111")}
	wbProducts := []models.WbProduct{{ID: 10, NmID: int64Ptr(222), Name: "WB Only"}}

	items := Reconcile(products, wbProducts, true)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	sources := map[DataSource]bool{}
	for _, item := range items {
		sources[item.DataSource] = true
	}
	if !sources[SourceLocalOnly] || !sources[SourceRemoteOnly] {
		t.Errorf("got sources %v, want LOCAL_ONLY and REMOTE_ONLY", sources)
	}

	items = Reconcile(products, wbProducts, false)
	if len(items) != 0 {
		t.Errorf("includeUnmatched=false should drop both, got %d items", len(items))
	}
}

func TestReconcileFirstWbCardWinsOnDuplicateKey(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Demo", "111")}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(111), Name: "First"},
		{ID: 11, NmID: int64Ptr(111), Name: "Second"},
	}

	items := Reconcile(products, wbProducts, false)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].WbProductID == nil || *items[0].WbProductID != 10 {
		t.Errorf("first card should win the duplicate key, matched %v", items[0].WbProductID)
	}
}

func TestReconcileClaimsDuplicateKeyCards(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Demo", "111")}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(111), Name: "First"},
		{ID: 11, NmID: int64Ptr(111), Name: "Second"},
	}

	// The second card loses the index collision, but its key is claimed by
	// the match, so it must not resurface as a REMOTE_ONLY item.
	items := Reconcile(products, wbProducts, true)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1: %+v", len(items), items)
	}
	if items[0].DataSource != SourceMerged {
		t.Errorf("got source %s, want MERGED", items[0].DataSource)
	}
	if items[0].WbProductID == nil || *items[0].WbProductID != 10 {
		t.Errorf("matched card = %v, want 10", items[0].WbProductID)
	}
}

func TestReconcileClaimsDuplicateVendorCodeCards(t *testing.T) {
	products := []models.Product{fullCostProduct(t, "Demo", "MUG-001")}
	wbProducts := []models.WbProduct{
		{ID: 10, VendorCode: "MUG-001", Name: "First"},
		{ID: 11, VendorCode: "mug-001", Name: "Second"},
	}

	items := Reconcile(products, wbProducts, true)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1: %+v", len(items), items)
	}
	if items[0].DataSource != SourceMerged {
		t.Errorf("got source %s, want MERGED", items[0].DataSource)
	}
}

func TestComputeMargins(t *testing.T) {
	item := ProductAnalytics{
		LocalPrice:    decPtr(t, "1000"),
		PurchasePrice: decPtr(t, "600"),
		LogisticsCost: decPtr(t, "100"),
		MarketingCost: decPtr(t, "50"),
		OtherExpenses: decPtr(t, "50"),
	}
	computeMargins(&item)
	if item.Margin == nil || item.Margin.StringFixed(2) != "200.00" {
		t.Errorf("margin = %v, want 200.00", item.Margin)
	}
	if item.MarginPercent == nil || item.MarginPercent.StringFixed(2) != "20.00" {
		t.Errorf("margin percent = %v, want 20.00", item.MarginPercent)
	}
}

func TestComputeMarginsPrefersDiscountPrice(t *testing.T) {
	item := ProductAnalytics{
		LocalPrice:      decPtr(t, "1000"),
		WbPrice:         decPtr(t, "1200"),
		WbDiscountPrice: decPtr(t, "900"),
		PurchasePrice:   decPtr(t, "600"),
	}
	computeMargins(&item)
	if item.Margin == nil || item.Margin.StringFixed(2) != "300.00" {
		t.Errorf("margin = %v, want 300.00 from the discounted price", item.Margin)
	}
}

func TestComputeMarginsUndefinedWhenNoCosts(t *testing.T) {
	item := ProductAnalytics{LocalPrice: decPtr(t, "1000")}
	computeMargins(&item)
	if item.Margin != nil || item.MarginPercent != nil {
		t.Error("margin must stay unknown when every cost component is unknown")
	}
}

func TestComputeMarginsNoPercentAtZeroSalePrice(t *testing.T) {
	item := ProductAnalytics{
		LocalPrice:    decPtr(t, "0"),
		PurchasePrice: decPtr(t, "10"),
	}
	computeMargins(&item)
	if item.Margin == nil {
		t.Fatal("margin should be defined")
	}
	if item.MarginPercent != nil {
		t.Error("margin percent must stay unknown at non-positive sale price")
	}
}

func TestClassifyBijection(t *testing.T) {
	engine := testEngine()
	products := []models.Product{
		fullCostProduct(t, "Good", "111"),
		{ID: 2, Name: "No Costs", WbArticle: "222", Price: dec(t, "500")},
	}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(111), Price: decPtr(t, "1000")},
		{ID: 11, NmID: int64Ptr(333), Name: "WB Only"},
	}

	report := engine.BuildReport(products, wbProducts, ReportOptions{IncludeWithoutWb: true, IncludeUnprofitable: true})
	for _, item := range report.AllItems {
		if item.RequiresCorrection != (len(item.Warnings) > 0) {
			t.Errorf("%s: requiresCorrection=%v with %d warnings", item.Name, item.RequiresCorrection, len(item.Warnings))
		}
		if item.Profitable {
			if len(item.Warnings) > 0 {
				t.Errorf("%s: profitable with warnings %v", item.Name, item.Warnings)
			}
			if item.Margin == nil || item.Margin.IsNegative() {
				t.Errorf("%s: profitable with margin %v", item.Name, item.Margin)
			}
		}
	}
}

func TestClassifyNegativeMargin(t *testing.T) {
	item := ProductAnalytics{
		Warnings:        []string{},
		DataSource:      SourceMerged,
		WbDiscountPrice: decPtr(t, "500"),
		WbPrice:         decPtr(t, "600"),
		PurchasePrice:   decPtr(t, "400"),
		LogisticsCost:   decPtr(t, "100"),
		MarketingCost:   decPtr(t, "50"),
		OtherExpenses:   decPtr(t, "50"),
	}
	computeMargins(&item)
	classify(&item, decimal.Zero, true)
	if !item.NegativeMargin {
		t.Error("negativeMargin flag not set")
	}
	if item.Profitable {
		t.Error("negative margin must not be profitable")
	}
	found := false
	for _, w := range item.Warnings {
		if w == WarnNegativeMargin {
			found = true
		}
	}
	if !found {
		t.Errorf("negative margin warning missing under the filter policy, got %v", item.Warnings)
	}

	quiet := ProductAnalytics{Warnings: []string{}, DataSource: SourceMerged,
		WbDiscountPrice: item.WbDiscountPrice, WbPrice: item.WbPrice,
		PurchasePrice: item.PurchasePrice, LogisticsCost: item.LogisticsCost,
		MarketingCost: item.MarketingCost, OtherExpenses: item.OtherExpenses}
	computeMargins(&quiet)
	classify(&quiet, decimal.Zero, false)
	for _, w := range quiet.Warnings {
		if w == WarnNegativeMargin {
			t.Error("negative margin warning present with the filter policy disabled")
		}
	}
	if !quiet.NegativeMargin {
		t.Error("flag must be set regardless of the warning policy")
	}
}

func TestClassifyBelowThreshold(t *testing.T) {
	item := ProductAnalytics{
		Warnings:        []string{},
		DataSource:      SourceMerged,
		WbDiscountPrice: decPtr(t, "1000"),
		PurchasePrice:   decPtr(t, "600"),
		LogisticsCost:   decPtr(t, "100"),
		MarketingCost:   decPtr(t, "50"),
		OtherExpenses:   decPtr(t, "50"),
	}
	computeMargins(&item)
	classify(&item, dec(t, "25"), true)
	if !item.MarginBelowThreshold {
		t.Error("marginBelowThreshold flag not set at 20% margin against a 25% threshold")
	}
	found := false
	for _, w := range item.Warnings {
		if strings.Contains(w, "25") {
			found = true
		}
	}
	if !found {
		t.Errorf("threshold warning should carry the threshold value, got %v", item.Warnings)
	}
}

func TestReportSortOrder(t *testing.T) {
	engine := testEngine()
	products := []models.Product{
		{ID: 1, Name: "A", WbArticle: "1", Price: dec(t, "100"),
			PurchasePrice: decPtr(t, "30"), LogisticsCost: decPtr(t, "10"),
			MarketingCost: decPtr(t, "5"), OtherExpenses: decPtr(t, "5")},
		{ID: 2, Name: "B", WbArticle: "2", Price: dec(t, "100"),
			PurchasePrice: decPtr(t, "10"), LogisticsCost: decPtr(t, "5"),
			MarketingCost: decPtr(t, "3"), OtherExpenses: decPtr(t, "2")},
		{ID: 3, Name: "C", WbArticle: "3", Price: dec(t, "100")},
	}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(1), Price: decPtr(t, "100")},
		{ID: 11, NmID: int64Ptr(2), Price: decPtr(t, "100")},
		{ID: 12, NmID: int64Ptr(3), Price: decPtr(t, "100")},
	}

	report := engine.BuildReport(products, wbProducts, ReportOptions{IncludeWithoutWb: true, IncludeUnprofitable: true})
	if len(report.AllItems) != 3 {
		t.Fatalf("got %d items, want 3", len(report.AllItems))
	}
	gotNames := []string{report.AllItems[0].Name, report.AllItems[1].Name, report.AllItems[2].Name}
	wantNames := []string{"B", "A", "C"}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			t.Fatalf("sort order = %v, want %v", gotNames, wantNames)
		}
	}
	if report.ProfitableCount != 2 {
		t.Errorf("profitable count = %d, want 2", report.ProfitableCount)
	}
}

func TestReportAllItemsWithoutUnprofitable(t *testing.T) {
	engine := testEngine()
	products := []models.Product{
		fullCostProduct(t, "Good", "111"),
		{ID: 2, Name: "Bad", WbArticle: "222", Price: dec(t, "500")},
	}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(111), Price: decPtr(t, "1000")},
		{ID: 11, NmID: int64Ptr(222), Price: decPtr(t, "500")},
	}

	report := engine.BuildReport(products, wbProducts, ReportOptions{IncludeWithoutWb: true, IncludeUnprofitable: false})
	if len(report.AllItems) != report.ProfitableCount {
		t.Errorf("allItems should equal the profitable bucket, got %d vs %d", len(report.AllItems), report.ProfitableCount)
	}
}

func TestExportProfitableCSV(t *testing.T) {
	engine := testEngine()
	products := []models.Product{fullCostProduct(t, `Mug; 350ml "classic"`, "111")}
	wbProducts := []models.WbProduct{{ID: 10, NmID: int64Ptr(111), Price: decPtr(t, "1000")}}

	payload := engine.ExportProfitableCSV(products, wbProducts, true, nil)
	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row:\n%s", len(lines), payload)
	}
	row := lines[1]
	if !strings.Contains(row, `"Mug; 350ml ""classic"""`) {
		t.Errorf("name with delimiter and quotes must be quoted and escaped, row: %s", row)
	}
	if !strings.Contains(row, "remote + local") {
		t.Errorf("merged source label missing, row: %s", row)
	}
	if !strings.Contains(row, "200.00") || !strings.Contains(row, "20.00") {
		t.Errorf("margin columns missing, row: %s", row)
	}
}

func TestBuildValidationReport(t *testing.T) {
	engine := &Engine{DefaultMinMarginPercent: dec(t, "10"), FilterNegativeMargin: true}
	products := []models.Product{{ID: 1, Name: "Demo", WbArticle: "111", Price: dec(t, "1000")}}
	wbProducts := []models.WbProduct{
		{ID: 10, NmID: int64Ptr(111), Name: "Demo", Price: decPtr(t, "1000"), PriceWithDiscount: decPtr(t, "900")},
		{ID: 11, NmID: int64Ptr(222), Name: "WB Only", Price: decPtr(t, "500"), PriceWithDiscount: decPtr(t, "450")},
	}

	report := engine.BuildValidationReport(products, wbProducts, true, nil)
	if len(report) != 2 {
		t.Fatalf("got %d validations, want 2", len(report))
	}

	var merged, wbOnly *ProductValidation
	for i := range report {
		switch report[i].DataSource {
		case SourceMerged:
			merged = &report[i]
		case SourceRemoteOnly:
			wbOnly = &report[i]
		}
	}
	if merged == nil || wbOnly == nil {
		t.Fatalf("expected one merged and one remote-only validation, got %+v", report)
	}

	fields := map[string]ProductIssue{}
	for _, issue := range merged.Issues {
		fields[issue.Field] = issue
	}
	for _, f := range []string{"purchasePrice", "logisticsCost", "marketingCost", "otherExpenses"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing issue for %s", f)
		}
	}
	purchase := fields["purchasePrice"]
	if !purchase.Blocking {
		t.Error("missing purchase price must be blocking")
	}
	if !strings.Contains(purchase.Suggestion, "60%") {
		t.Errorf("purchase suggestion should reference 60%% of sale price, got %q", purchase.Suggestion)
	}

	foundExcel := false
	for _, issue := range wbOnly.Issues {
		if issue.Field == "excelData" {
			foundExcel = true
		}
	}
	if !foundExcel {
		t.Errorf("remote-only item should flag missing local data, got %+v", wbOnly.Issues)
	}
}
