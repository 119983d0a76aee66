package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods offered at checkout. Orders accept any label.
const (
	PaymentMethodUPI  = "UPI"
	PaymentMethodCard = "Card"
	PaymentMethodCash = "Cash"
)

// PaymentMethods returns the methods offered at checkout.
func PaymentMethods() []string {
	return []string{PaymentMethodUPI, PaymentMethodCard, PaymentMethodCash}
}

// OrderLine is a structured line item stored with an order.
type OrderLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// LineTotal returns unit price times quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a persisted purchase. Lines is empty for orders created from a
// free-form items summary.
type Order struct {
	ID            string          `json:"id"`
	Items         string          `json:"items"`
	Lines         []OrderLine     `json:"lines,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ProductCount returns the number of units in the order, from the structured
// lines when present and from the items summary otherwise.
func (o *Order) ProductCount() int {
	if len(o.Lines) > 0 {
		var n int
		for _, l := range o.Lines {
			n += l.Quantity
		}
		return n
	}
	return SummaryQuantity(o.Items)
}

// LinesTotal sums the line totals of lines.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// OrderDraft is an order before the store assigns its id and timestamps.
type OrderDraft struct {
	Items         string
	Lines         []OrderLine
	Total         decimal.Decimal
	PaymentMethod string
}
