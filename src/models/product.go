package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a locally curated cost-sheet entry, usually imported from an
// Excel report. Cost fields are optional: absence means "unknown", which the
// analytics engine surfaces as warnings.
type Product struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	WbArticle       string           `json:"wbArticle,omitempty"`
	SupplierArticle string           `json:"supplierArticle,omitempty"`
	Brand           string           `json:"brand,omitempty"`
	Category        string           `json:"category,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	PurchasePrice   *decimal.Decimal `json:"purchasePrice,omitempty"`
	LogisticsCost   *decimal.Decimal `json:"logisticsCost,omitempty"`
	MarketingCost   *decimal.Decimal `json:"marketingCost,omitempty"`
	OtherExpenses   *decimal.Decimal `json:"otherExpenses,omitempty"`
	StockQuantity   *int             `json:"stockQuantity,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ArticleKey returns the identifier used for matching against WB cards:
// the WB article when present, otherwise the supplier article.
func (p *Product) ArticleKey() string {
	if p.WbArticle != "" {
		return p.WbArticle
	}
	return p.SupplierArticle
}

const productColumns = `id, name, wb_article, supplier_article, brand, category, price,
	purchase_price, logistics_cost, marketing_cost, other_expenses, stock_quantity,
	created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	var wbArticle, supplierArticle, brand, category sql.NullString
	var price string
	var purchase, logistics, marketing, other sql.NullString
	var stock sql.NullInt64

	err := row.Scan(&p.ID, &p.Name, &wbArticle, &supplierArticle, &brand, &category, &price,
		&purchase, &logistics, &marketing, &other, &stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.WbArticle = wbArticle.String
	p.SupplierArticle = supplierArticle.String
	p.Brand = brand.String
	p.Category = category.String
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d has malformed price %q: %w", p.ID, price, err)
	}
	p.Price = parsed
	p.PurchasePrice = scanDecimal(purchase)
	p.LogisticsCost = scanDecimal(logistics)
	p.MarketingCost = scanDecimal(marketing)
	p.OtherExpenses = scanDecimal(other)
	p.StockQuantity = scanInt(stock)
	return &p, nil
}

func GetAllProducts(db *sql.DB) ([]Product, error) {
	rows, err := db.Query("SELECT " + productColumns + " FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func GetProductByID(db *sql.DB, id int64) (*Product, error) {
	row := db.QueryRow("SELECT "+productColumns+" FROM products WHERE id = ?", id)
	return scanProduct(row)
}

func GetProductByWbArticle(db *sql.DB, wbArticle string) (*Product, error) {
	row := db.QueryRow("SELECT "+productColumns+" FROM products WHERE wb_article = ?", wbArticle)
	return scanProduct(row)
}

func SearchProductsByName(db *sql.DB, name string) ([]Product, error) {
	rows, err := db.Query("SELECT "+productColumns+" FROM products WHERE name LIKE ? ORDER BY id", "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func GetProductsByCategory(db *sql.DB, category string) ([]Product, error) {
	rows, err := db.Query("SELECT "+productColumns+" FROM products WHERE category = ? ORDER BY id", category)
	if err != nil {
		return nil, fmt.Errorf("querying products by category: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func GetProductsByBrand(db *sql.DB, brand string) ([]Product, error) {
	rows, err := db.Query("SELECT "+productColumns+" FROM products WHERE brand = ? ORDER BY id", brand)
	if err != nil {
		return nil, fmt.Errorf("querying products by brand: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func GetLowStockProducts(db *sql.DB, threshold int) ([]Product, error) {
	rows, err := db.Query("SELECT "+productColumns+" FROM products WHERE stock_quantity IS NOT NULL AND stock_quantity < ? ORDER BY id", threshold)
	if err != nil {
		return nil, fmt.Errorf("querying low stock products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// SaveProduct inserts a new product or updates an existing one (ID set).
// It returns the stored product with its assigned ID.
func SaveProduct(db *sql.DB, p *Product) (*Product, error) {
	now := time.Now().UTC()
	if p.ID == 0 {
		p.CreatedAt = now
		p.UpdatedAt = now
		res, err := db.Exec(`INSERT INTO products
			(name, wb_article, supplier_article, brand, category, price,
			 purchase_price, logistics_cost, marketing_cost, other_expenses, stock_quantity,
			 created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, stringToArg(p.WbArticle), stringToArg(p.SupplierArticle),
			stringToArg(p.Brand), stringToArg(p.Category), p.Price.String(),
			decimalToArg(p.PurchasePrice), decimalToArg(p.LogisticsCost),
			decimalToArg(p.MarketingCost), decimalToArg(p.OtherExpenses),
			intToArg(p.StockQuantity), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("inserting product: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted product id: %w", err)
		}
		p.ID = id
		return p, nil
	}

	p.UpdatedAt = now
	_, err := db.Exec(`UPDATE products SET
		name = ?, wb_article = ?, supplier_article = ?, brand = ?, category = ?, price = ?,
		purchase_price = ?, logistics_cost = ?, marketing_cost = ?, other_expenses = ?,
		stock_quantity = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, stringToArg(p.WbArticle), stringToArg(p.SupplierArticle),
		stringToArg(p.Brand), stringToArg(p.Category), p.Price.String(),
		decimalToArg(p.PurchasePrice), decimalToArg(p.LogisticsCost),
		decimalToArg(p.MarketingCost), decimalToArg(p.OtherExpenses),
		intToArg(p.StockQuantity), p.UpdatedAt, p.ID)
	if err != nil {
		return nil, fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	return p, nil
}

// UpdateProductCosts overwrites the four cost components of one product.
// Nil values clear the corresponding column.
func UpdateProductCosts(db *sql.DB, id int64, purchase, logistics, marketing, other *decimal.Decimal) error {
	res, err := db.Exec(`UPDATE products SET
		purchase_price = ?, logistics_cost = ?, marketing_cost = ?, other_expenses = ?, updated_at = ?
		WHERE id = ?`,
		decimalToArg(purchase), decimalToArg(logistics), decimalToArg(marketing), decimalToArg(other),
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating product costs %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProductPrice sets the local sale price of one product.
func UpdateProductPrice(db *sql.DB, id int64, price decimal.Decimal) error {
	res, err := db.Exec("UPDATE products SET price = ?, updated_at = ? WHERE id = ?",
		price.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating product price %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func DeleteProduct(db *sql.DB, id int64) error {
	res, err := db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func DeleteAllProducts(db *sql.DB) (int64, error) {
	res, err := db.Exec("DELETE FROM products")
	if err != nil {
		return 0, fmt.Errorf("deleting products: %w", err)
	}
	return res.RowsAffected()
}
