package domain

import "github.com/shopspring/decimal"

func init() {
	// Money goes over the wire as a JSON number, matching the historical API.
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
