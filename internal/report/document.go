package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/internal/domain"
)

// Filename is the attachment name of the downloadable report.
const Filename = "order_report.pdf"

// Options controls how values are printed in a report.
type Options struct {
	Title          string
	CurrencySymbol string
	Location       *time.Location
	TimeLayout     string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Title:          "Grocify - Order Report",
		CurrencySymbol: "Rs.",
		Location:       time.UTC,
		TimeLayout:     "02 Jan 2006 15:04:05 MST",
	}
}

// Field is one "label: value" line.
type Field struct {
	Label string
	Value string
}

// Block is a titled group of fields, one per order.
type Block struct {
	Title  string
	Fields []Field
}

// Document is a format-agnostic report. Renderers only lay it out.
type Document struct {
	Title         string
	StatsHeading  string
	Stats         []Field
	OrdersHeading string
	Orders        []Block
}

// Build assembles the report for orders, which are listed in the given order
// and numbered from 1. stats must come from domain.Aggregate over the same
// orders.
func Build(orders []domain.Order, stats domain.Statistics, opts Options) Document {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultOptions().TimeLayout
	}

	money := func(d decimal.Decimal) string {
		return opts.CurrencySymbol + domain.FormatMoney(d)
	}

	doc := Document{
		Title:        opts.Title,
		StatsHeading: "Statistics",
		Stats: []Field{
			{Label: "Total Orders", Value: strconv.Itoa(stats.TotalOrders)},
			{Label: "Total Revenue", Value: money(stats.TotalRevenue)},
			{Label: "Average Order Value", Value: money(stats.AverageOrderValue)},
		},
		OrdersHeading: "Order Details",
		Orders:        make([]Block, len(orders)),
	}

	for i, o := range orders {
		doc.Orders[i] = Block{
			Title: fmt.Sprintf("Order %d:", i+1),
			Fields: []Field{
				{Label: "Items", Value: o.Items},
				{Label: "Total", Value: money(o.Total)},
				{Label: "Payment Method", Value: o.PaymentMethod},
				{Label: "Date", Value: o.CreatedAt.In(opts.Location).Format(opts.TimeLayout)},
			},
		}
	}

	return doc
}
