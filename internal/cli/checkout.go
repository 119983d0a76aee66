package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/grocify/internal/domain"
)

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Payment string
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Place an order for everything in the cart.
The cart is emptied only after the API has stored the order.`,
		Example: "  grocify checkout --payment UPI",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := opts.carts.Checkout(cmd.Context(), opts.Session, opts.Payment)
			if err != nil {
				return err
			}
			return opts.printer(cmd).order("placed", order)
		},
	}

	cmd.Flags().StringVarP(&opts.Payment, "payment", "p", "",
		fmt.Sprintf("payment method (%s)", strings.Join(domain.PaymentMethods(), "|")))
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}
