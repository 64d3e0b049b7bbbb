package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// decimalToArg converts an optional decimal into a driver argument.
// Money columns are TEXT; nil stays NULL.
func decimalToArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanDecimal converts a nullable TEXT column back into an optional decimal.
// An unparseable value is treated as absent rather than failing the whole row.
func scanDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

// scanInt converts a nullable INTEGER column into an optional int.
func scanInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func intToArg(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func int64ToArg(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func stringToArg(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
