package domain

import "github.com/shopspring/decimal"

// Statistics summarizes an order history. It is always derived from the
// orders, never stored.
type Statistics struct {
	TotalOrders         int             `json:"totalOrders"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TotalProductsSold   int             `json:"totalProductsSold"`
	AverageOrderValue   decimal.Decimal `json:"averageOrderValue"`
	PaymentMethodCounts map[string]int  `json:"paymentMethodCounts"`
}

// Aggregate computes statistics over orders in a single pass.
func Aggregate(orders []Order) Statistics {
	stats := Statistics{
		TotalOrders:         len(orders),
		TotalRevenue:        decimal.Zero,
		AverageOrderValue:   decimal.Zero,
		PaymentMethodCounts: make(map[string]int),
	}

	for i := range orders {
		o := &orders[i]
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		stats.TotalProductsSold += o.ProductCount()
		stats.PaymentMethodCounts[o.PaymentMethod]++
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.TotalOrders)))
	}

	return stats
}
