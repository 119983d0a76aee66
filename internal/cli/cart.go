package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
)

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the session cart",
	}

	cmd.AddCommand(newCartShowCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartQtyCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))

	return cmd
}

func newCartShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := rootOpts.carts.GetCart(cmd.Context(), rootOpts.Session)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).cart(domain.RenderCart(cart))
		},
	}
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME PRICE",
		Short: "Add one unit of a product to the cart",
		Long: `Add one unit of a product at the given unit price.
Adding a product already in the cart increases its quantity by one.`,
		Example: `  grocify cart add Milk 25
  grocify cart add "Brown Bread" 45.50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("invalid price %q", args[1]))
			}
			cart, err := rootOpts.carts.AddItem(cmd.Context(), rootOpts.Session, args[0], price)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).cart(domain.RenderCart(cart))
		},
	}
}

func newCartQtyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "qty POSITION QUANTITY",
		Short:   "Set the quantity of a cart line",
		Example: "  grocify cart qty 2 5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("invalid position %q", args[0]))
			}
			cart, err := rootOpts.carts.SetQuantity(cmd.Context(), rootOpts.Session, position, args[1])
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).cart(domain.RenderCart(cart))
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cart, err := rootOpts.carts.RemoveItem(cmd.Context(), rootOpts.Session, args[0])
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).cart(domain.RenderCart(cart))
		},
	}
}

func newCartClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rootOpts.carts.Clear(cmd.Context(), rootOpts.Session); err != nil {
				return err
			}
			return rootOpts.printer(cmd).message("Cart cleared.")
		},
	}
}
