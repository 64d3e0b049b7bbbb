package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WbProduct is one catalog card from the Wildberries seller cabinet, as
// returned by the price list API or the bundled mock dataset. All price and
// stock fields are optional because the API omits them for some cards.
type WbProduct struct {
	ID                int64            `json:"id"`
	NmID              *int64           `json:"nmId,omitempty"`
	VendorCode        string           `json:"vendorCode,omitempty"`
	Name              string           `json:"name,omitempty"`
	Vendor            string           `json:"vendor,omitempty"`
	Brand             string           `json:"brand,omitempty"`
	Category          string           `json:"category,omitempty"`
	Subject           string           `json:"subject,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Discount          *int             `json:"discount,omitempty"`
	PriceWithDiscount *decimal.Decimal `json:"priceWithDiscount,omitempty"`
	SalePrice         *decimal.Decimal `json:"salePrice,omitempty"`
	TotalQuantity     *int             `json:"totalQuantity,omitempty"`
	Colors            string           `json:"colors,omitempty"`
	Sizes             string           `json:"sizes,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

const wbProductColumns = `id, nm_id, vendor_code, name, vendor, brand, category, subject,
	price, discount, price_with_discount, sale_price, total_quantity, colors, sizes,
	created_at, updated_at`

func scanWbProduct(row interface{ Scan(...interface{}) error }) (*WbProduct, error) {
	var p WbProduct
	var nmID sql.NullInt64
	var vendorCode, name, vendor, brand, category, subject, colors, sizes sql.NullString
	var price, priceWithDiscount, salePrice sql.NullString
	var discount, totalQuantity sql.NullInt64

	err := row.Scan(&p.ID, &nmID, &vendorCode, &name, &vendor, &brand, &category, &subject,
		&price, &discount, &priceWithDiscount, &salePrice, &totalQuantity, &colors, &sizes,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if nmID.Valid {
		v := nmID.Int64
		p.NmID = &v
	}
	p.VendorCode = vendorCode.String
	p.Name = name.String
	p.Vendor = vendor.String
	p.Brand = brand.String
	p.Category = category.String
	p.Subject = subject.String
	p.Price = scanDecimal(price)
	p.Discount = scanInt(discount)
	p.PriceWithDiscount = scanDecimal(priceWithDiscount)
	p.SalePrice = scanDecimal(salePrice)
	p.TotalQuantity = scanInt(totalQuantity)
	p.Colors = colors.String
	p.Sizes = sizes.String
	return &p, nil
}

func GetAllWbProducts(db *sql.DB) ([]WbProduct, error) {
	rows, err := db.Query("SELECT " + wbProductColumns + " FROM wb_products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying wb products: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func GetWbProductByID(db *sql.DB, id int64) (*WbProduct, error) {
	row := db.QueryRow("SELECT "+wbProductColumns+" FROM wb_products WHERE id = ?", id)
	return scanWbProduct(row)
}

func GetWbProductByNmID(db *sql.DB, nmID int64) (*WbProduct, error) {
	row := db.QueryRow("SELECT "+wbProductColumns+" FROM wb_products WHERE nm_id = ?", nmID)
	return scanWbProduct(row)
}

func GetWbProductByVendorCode(db *sql.DB, vendorCode string) (*WbProduct, error) {
	row := db.QueryRow("SELECT "+wbProductColumns+" FROM wb_products WHERE vendor_code = ? COLLATE NOCASE", vendorCode)
	return scanWbProduct(row)
}

func SearchWbProductsByName(db *sql.DB, name string) ([]WbProduct, error) {
	rows, err := db.Query("SELECT "+wbProductColumns+" FROM wb_products WHERE name LIKE ? ORDER BY id", "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("searching wb products: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func GetWbProductsByBrand(db *sql.DB, brand string) ([]WbProduct, error) {
	rows, err := db.Query("SELECT "+wbProductColumns+" FROM wb_products WHERE brand = ? ORDER BY id", brand)
	if err != nil {
		return nil, fmt.Errorf("querying wb products by brand: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func GetWbProductsByCategory(db *sql.DB, category string) ([]WbProduct, error) {
	rows, err := db.Query("SELECT "+wbProductColumns+" FROM wb_products WHERE category = ? ORDER BY id", category)
	if err != nil {
		return nil, fmt.Errorf("querying wb products by category: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func GetWbProductsBySubject(db *sql.DB, subject string) ([]WbProduct, error) {
	rows, err := db.Query("SELECT "+wbProductColumns+" FROM wb_products WHERE subject = ? ORDER BY id", subject)
	if err != nil {
		return nil, fmt.Errorf("querying wb products by subject: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func GetLowStockWbProducts(db *sql.DB, threshold int) ([]WbProduct, error) {
	rows, err := db.Query("SELECT "+wbProductColumns+" FROM wb_products WHERE total_quantity IS NOT NULL AND total_quantity < ? ORDER BY id", threshold)
	if err != nil {
		return nil, fmt.Errorf("querying low stock wb products: %w", err)
	}
	defer rows.Close()
	return collectWbProducts(rows)
}

func collectWbProducts(rows *sql.Rows) ([]WbProduct, error) {
	var products []WbProduct
	for rows.Next() {
		p, err := scanWbProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning wb product row: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// SaveWbProduct inserts a new card or updates an existing one (ID set).
func SaveWbProduct(db *sql.DB, p *WbProduct) (*WbProduct, error) {
	now := time.Now().UTC()
	if p.ID == 0 {
		p.CreatedAt = now
		p.UpdatedAt = now
		res, err := db.Exec(`INSERT INTO wb_products
			(nm_id, vendor_code, name, vendor, brand, category, subject,
			 price, discount, price_with_discount, sale_price, total_quantity, colors, sizes,
			 created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64ToArg(p.NmID), stringToArg(p.VendorCode), stringToArg(p.Name),
			stringToArg(p.Vendor), stringToArg(p.Brand), stringToArg(p.Category), stringToArg(p.Subject),
			decimalToArg(p.Price), intToArg(p.Discount), decimalToArg(p.PriceWithDiscount),
			decimalToArg(p.SalePrice), intToArg(p.TotalQuantity),
			stringToArg(p.Colors), stringToArg(p.Sizes), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("inserting wb product: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted wb product id: %w", err)
		}
		p.ID = id
		return p, nil
	}

	p.UpdatedAt = now
	_, err := db.Exec(`UPDATE wb_products SET
		nm_id = ?, vendor_code = ?, name = ?, vendor = ?, brand = ?, category = ?, subject = ?,
		price = ?, discount = ?, price_with_discount = ?, sale_price = ?, total_quantity = ?,
		colors = ?, sizes = ?, updated_at = ?
		WHERE id = ?`,
		int64ToArg(p.NmID), stringToArg(p.VendorCode), stringToArg(p.Name),
		stringToArg(p.Vendor), stringToArg(p.Brand), stringToArg(p.Category), stringToArg(p.Subject),
		decimalToArg(p.Price), intToArg(p.Discount), decimalToArg(p.PriceWithDiscount),
		decimalToArg(p.SalePrice), intToArg(p.TotalQuantity),
		stringToArg(p.Colors), stringToArg(p.Sizes), p.UpdatedAt, p.ID)
	if err != nil {
		return nil, fmt.Errorf("updating wb product %d: %w", p.ID, err)
	}
	return p, nil
}

// UpdateWbProductPrice sets the base price of one WB card.
func UpdateWbProductPrice(db *sql.DB, id int64, price decimal.Decimal) error {
	res, err := db.Exec("UPDATE wb_products SET price = ?, updated_at = ? WHERE id = ?",
		price.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating wb product price %d: %w", id, err)
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

func DeleteWbProduct(db *sql.DB, id int64) error {
	res, err := db.Exec("DELETE FROM wb_products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting wb product %d: %w", id, err)
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

func DeleteAllWbProducts(db *sql.DB) (int64, error) {
	res, err := db.Exec("DELETE FROM wb_products")
	if err != nil {
		return 0, fmt.Errorf("deleting wb products: %w", err)
	}
	return res.RowsAffected()
}
