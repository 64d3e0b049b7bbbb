package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is one per-product row of the analytics report frozen at a
// point in time, used for margin history.
type DailySnapshot struct {
	ID            int64            `json:"id"`
	SnapshotDate  string           `json:"snapshotDate"`
	WbArticle     string           `json:"wbArticle,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Margin        *decimal.Decimal `json:"margin,omitempty"`
	MarginPercent *decimal.Decimal `json:"marginPercent,omitempty"`
	StockLocal    *int             `json:"stockLocal,omitempty"`
	StockWb       *int             `json:"stockWb,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

const snapshotColumns = `id, snapshot_date, wb_article, price, margin, margin_percent,
	stock_local, stock_wb, created_at`

// SaveSnapshots persists all rows in a single transaction so a failed save
// never leaves a partial day behind.
func SaveSnapshots(db *sql.DB, snapshots []DailySnapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO daily_snapshots
		(snapshot_date, wb_article, price, margin, margin_percent, stock_local, stock_wb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range snapshots {
		s := &snapshots[i]
		s.CreatedAt = now
		_, err := stmt.Exec(s.SnapshotDate, stringToArg(s.WbArticle),
			decimalToArg(s.Price), decimalToArg(s.Margin), decimalToArg(s.MarginPercent),
			intToArg(s.StockLocal), intToArg(s.StockWb), s.CreatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting snapshot for %s: %w", s.WbArticle, err)
		}
	}
	return tx.Commit()
}

// GetSnapshotsBetween returns snapshots whose date is within [from, to],
// dates in YYYY-MM-DD form.
func GetSnapshotsBetween(db *sql.DB, from, to string) ([]DailySnapshot, error) {
	rows, err := db.Query("SELECT "+snapshotColumns+" FROM daily_snapshots WHERE snapshot_date >= ? AND snapshot_date <= ? ORDER BY snapshot_date, id", from, to)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []DailySnapshot
	for rows.Next() {
		var s DailySnapshot
		var wbArticle sql.NullString
		var price, margin, marginPercent sql.NullString
		var stockLocal, stockWb sql.NullInt64
		err := rows.Scan(&s.ID, &s.SnapshotDate, &wbArticle, &price, &margin, &marginPercent,
			&stockLocal, &stockWb, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		s.WbArticle = wbArticle.String
		s.Price = scanDecimal(price)
		s.Margin = scanDecimal(margin)
		s.MarginPercent = scanDecimal(marginPercent)
		s.StockLocal = scanInt(stockLocal)
		s.StockWb = scanInt(stockWb)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// GetSnapshotDates lists distinct dates with stored snapshots, newest first.
func GetSnapshotDates(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT DISTINCT snapshot_date FROM daily_snapshots ORDER BY snapshot_date DESC")
	if err != nil {
		return nil, fmt.Errorf("querying snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
