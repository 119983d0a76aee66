package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/report"
)

const dateLayout = "02 Jan 2006 15:04"

var currency = report.DefaultOptions().CurrencySymbol

type printer struct {
	w      io.Writer
	format string
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
}

func (p *printer) cart(view domain.CartView) error {
	if p.format == "json" {
		return p.json(view)
	}
	if view.Empty {
		_, err := fmt.Fprintln(p.w, "Cart is empty.")
		return err
	}

	tw := p.table()
	fmt.Fprintln(tw, "#\tITEM\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range view.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", l.Position, l.Name, l.UnitPrice, l.Quantity, l.LineTotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "Total: %s%s (%d items)\n", currency, view.Total, view.ItemCount)
	return err
}

func (p *printer) order(verb string, o *domain.Order) error {
	if p.format == "json" {
		return p.json(o)
	}
	_, err := fmt.Fprintf(p.w, "Order %s %s\n  Items: %s\n  Total: %s%s\n  Payment Method: %s\n",
		o.ID, verb, o.Items, currency, domain.FormatMoney(o.Total), o.PaymentMethod)
	return err
}

func (p *printer) orders(orders []domain.Order) error {
	if p.format == "json" {
		if orders == nil {
			orders = []domain.Order{}
		}
		return p.json(orders)
	}
	if len(orders) == 0 {
		_, err := fmt.Fprintln(p.w, "No orders yet.")
		return err
	}

	tw := p.table()
	fmt.Fprintln(tw, "#\tID\tITEMS\tTOTAL\tPAYMENT\tDATE")
	for i, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, o.ID, o.Items, currency+domain.FormatMoney(o.Total), o.PaymentMethod, o.CreatedAt.In(time.Local).Format(dateLayout))
	}
	return tw.Flush()
}

func (p *printer) stats(s domain.Statistics) error {
	if p.format == "json" {
		return p.json(s)
	}

	methods := make([]string, 0, len(s.PaymentMethodCounts))
	for _, m := range slices.Sorted(maps.Keys(s.PaymentMethodCounts)) {
		methods = append(methods, fmt.Sprintf("%s=%d", m, s.PaymentMethodCounts[m]))
	}

	tw := p.table()
	fmt.Fprintf(tw, "Total Orders:\t%d\n", s.TotalOrders)
	fmt.Fprintf(tw, "Total Revenue:\t%s%s\n", currency, domain.FormatMoney(s.TotalRevenue))
	fmt.Fprintf(tw, "Average Order Value:\t%s%s\n", currency, domain.FormatMoney(s.AverageOrderValue))
	fmt.Fprintf(tw, "Products Sold:\t%d\n", s.TotalProductsSold)
	fmt.Fprintf(tw, "Payment Methods:\t%s\n", strings.Join(methods, ", "))
	return tw.Flush()
}

func (p *printer) message(format string, args ...any) error {
	if p.format == "json" {
		return p.json(map[string]string{"message": fmt.Sprintf(format, args...)})
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}
