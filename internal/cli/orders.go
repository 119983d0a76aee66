package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "List, edit and delete placed orders",
	}

	cmd.AddCommand(newOrdersListCommand(rootOpts))
	cmd.AddCommand(newOrdersUpdateCommand(rootOpts))
	cmd.AddCommand(newOrdersDeleteCommand(rootOpts))

	return cmd
}

func newOrdersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List orders, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := rootOpts.deps.API.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).orders(orders)
		},
	}
}

// UpdateOptions holds flags for the orders update command.
type UpdateOptions struct {
	*RootOptions
	Items string
	Lines []string
	Total string
}

func newOrdersUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the items and total of an order",
		Long: `Replace the items and total of an order.
Pass the new contents either as an items summary with --items and --total,
or as one --line NAME:QTY:PRICE per product. With --line the total defaults
to the sum of the lines.`,
		Example: `  grocify orders update 3f6c... --items "Milk (x3)" --total 75
  grocify orders update 3f6c... --line Milk:3:25 --line Bread:1:40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, lines, total, err := opts.contents(cmd.Flags().Changed("total"))
			if err != nil {
				return err
			}
			order, err := opts.deps.API.UpdateOrder(cmd.Context(), args[0], items, lines, total)
			if err != nil {
				return err
			}
			return opts.printer(cmd).order("updated", order)
		},
	}

	cmd.Flags().StringVar(&opts.Items, "items", "", "items summary, e.g. \"Bread (x1), Milk (x2)\"")
	cmd.Flags().StringArrayVar(&opts.Lines, "line", nil, "line item as NAME:QTY:PRICE (repeatable)")
	cmd.Flags().StringVar(&opts.Total, "total", "", "order total")
	cmd.MarkFlagsMutuallyExclusive("items", "line")
	cmd.MarkFlagsOneRequired("items", "line")

	return cmd
}

func (o *UpdateOptions) contents(totalSet bool) (string, []domain.OrderLine, decimal.Decimal, error) {
	var total decimal.Decimal
	if totalSet {
		t, err := decimal.NewFromString(o.Total)
		if err != nil {
			return "", nil, decimal.Zero, apperrors.InvalidInput(fmt.Sprintf("invalid total %q", o.Total))
		}
		total = t
	}

	if len(o.Lines) == 0 {
		if !totalSet {
			return "", nil, decimal.Zero, apperrors.InvalidInput("--total is required with --items")
		}
		return o.Items, nil, total, nil
	}

	lines := make([]domain.OrderLine, 0, len(o.Lines))
	for _, raw := range o.Lines {
		line, err := parseLine(raw)
		if err != nil {
			return "", nil, decimal.Zero, err
		}
		lines = append(lines, line)
	}
	if !totalSet {
		total = domain.LinesTotal(lines)
	}
	return domain.FormatItemsSummary(lines), lines, total, nil
}

// parseLine reads NAME:QTY:PRICE. NAME may itself contain colons.
func parseLine(raw string) (domain.OrderLine, error) {
	invalid := apperrors.InvalidInput(fmt.Sprintf("invalid line %q: want NAME:QTY:PRICE", raw))

	rest, priceText, ok := cutLast(raw)
	if !ok {
		return domain.OrderLine{}, invalid
	}
	name, qtyText, ok := cutLast(rest)
	if !ok || strings.TrimSpace(name) == "" {
		return domain.OrderLine{}, invalid
	}

	qty, err := strconv.Atoi(qtyText)
	if err != nil || qty < 1 {
		return domain.OrderLine{}, invalid
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil || price.IsNegative() {
		return domain.OrderLine{}, invalid
	}
	return domain.OrderLine{Name: strings.TrimSpace(name), Quantity: qty, UnitPrice: price}, nil
}

func cutLast(s string) (before, after string, found bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func newOrdersDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.deps.API.DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rootOpts.printer(cmd).message("Order %s deleted.", args[0])
		},
	}
}
