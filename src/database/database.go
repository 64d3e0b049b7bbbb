package database

import (
	"database/sql"
	stdlog "log"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}

	// Decimal money columns are stored as TEXT so values survive the
	// round-trip without float drift.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		wb_article TEXT,
		supplier_article TEXT,
		brand TEXT,
		category TEXT,
		price TEXT NOT NULL,
		purchase_price TEXT,
		logistics_cost TEXT,
		marketing_cost TEXT,
		other_expenses TEXT,
		stock_quantity INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS wb_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nm_id INTEGER,
		vendor_code TEXT,
		name TEXT,
		vendor TEXT,
		brand TEXT,
		category TEXT,
		subject TEXT,
		price TEXT,
		discount INTEGER,
		price_with_discount TEXT,
		sale_price TEXT,
		total_quantity INTEGER,
		colors TEXT,
		sizes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS daily_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_date TEXT NOT NULL,
		wb_article TEXT,
		price TEXT,
		margin TEXT,
		margin_percent TEXT,
		stock_local INTEGER,
		stock_wb INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_wb_article ON products(wb_article);
	CREATE INDEX IF NOT EXISTS idx_wb_products_nm_id ON wb_products(nm_id);
	CREATE INDEX IF NOT EXISTS idx_wb_products_vendor_code ON wb_products(vendor_code);
	CREATE INDEX IF NOT EXISTS idx_daily_snapshots_date ON daily_snapshots(snapshot_date);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	migrateProductTable()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateProductTable adds columns introduced after the first release to
// databases created by older builds.
func migrateProductTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='products'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'products' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(products)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'products'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'products'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'products'", "error", err)
		}
		return
	}

	if _, ok := columnExists["supplier_article"]; !ok {
		_, err := DB.Exec("ALTER TABLE products ADD COLUMN supplier_article TEXT")
		if err != nil {
			logger.L.Error("Error adding 'supplier_article' column to 'products' table", "error", err)
		} else {
			logger.L.Info("Added 'supplier_article' column to 'products' table")
		}
	}
}
