package snapshots

import (
	"database/sql"
	"time"

	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// Service freezes the analytics report into daily_snapshots rows for margin
// history.
type Service struct {
	DB     *sql.DB
	Engine *analytics.Engine
}

// TakeSnapshot builds the full report (both unmatched sides included, no
// threshold override) and stores one row per item under today's date.
// Returns the number of rows written.
func (s *Service) TakeSnapshot() (int, error) {
	products, err := models.GetAllProducts(s.DB)
	if err != nil {
		return 0, err
	}
	wbProducts, err := models.GetAllWbProducts(s.DB)
	if err != nil {
		return 0, err
	}

	report := s.Engine.BuildReport(products, wbProducts, analytics.ReportOptions{
		IncludeWithoutWb:    true,
		IncludeUnprofitable: true,
	})

	date := time.Now().UTC().Format("2006-01-02")
	rows := make([]models.DailySnapshot, 0, len(report.AllItems))
	for i := range report.AllItems {
		item := &report.AllItems[i]
		rows = append(rows, models.DailySnapshot{
			SnapshotDate:  date,
			WbArticle:     item.WbArticle,
			Price:         item.SalePrice(),
			Margin:        item.Margin,
			MarginPercent: item.MarginPercent,
			StockLocal:    item.LocalStock,
			StockWb:       item.WbStock,
		})
	}
	if err := models.SaveSnapshots(s.DB, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// History returns the stored snapshots within [from, to], dates in
// YYYY-MM-DD form. An empty bound defaults to the epoch and today
// respectively.
func (s *Service) History(from, to string) ([]models.DailySnapshot, error) {
	if from == "" {
		from = "1970-01-01"
	}
	if to == "" {
		to = time.Now().UTC().Format("2006-01-02")
	}
	return models.GetSnapshotsBetween(s.DB, from, to)
}

// Dates lists the distinct snapshot dates, newest first.
func (s *Service) Dates() ([]string, error) {
	return models.GetSnapshotDates(s.DB)
}
