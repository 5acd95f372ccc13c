package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/storefront/internal/app"
)

func (r *runner) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
		Long:  "The cart is kept in durable storage between invocations. Quantities never exceed available stock.",
	}

	cmd.AddCommand(
		r.cartShowCmd(),
		r.cartAddCmd(),
		r.cartSetCmd(),
		r.cartRemoveCmd(),
		r.cartClearCmd(),
	)

	return cmd
}

func (r *runner) printCart(cmd *cobra.Command) error {
	return printJSON(cmd.OutOrStdout(), r.app.Cart.State())
}

func (r *runner) cartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Show cart lines and total",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			return r.printCart(cmd)
		}),
	}
}

func (r *runner) cartAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add KIND ID",
		Short: "Add one unit of an entity to the cart",
		Long:  kindsHelp + " Services can be added once.",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			kind, err := app.KindByName(args[0])
			if err != nil {
				return err
			}
			item, err := r.app.CartItem(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			if _, err := r.app.Cart.AddLine(cmd.Context(), item); err != nil {
				return err
			}
			return r.printCart(cmd)
		}),
	}
}

func (r *runner) cartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set ID COUNT",
		Short: "Set the exact quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse count: %w", err)
			}
			if _, err := r.app.Cart.UpdateCount(cmd.Context(), args[0], count); err != nil {
				return err
			}
			return r.printCart(cmd)
		}),
	}
}

func (r *runner) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if err := r.app.Cart.RemoveLine(cmd.Context(), args[0]); err != nil {
				return err
			}
			return r.printCart(cmd)
		}),
	}
}

func (r *runner) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all lines",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if err := r.app.Cart.Clear(cmd.Context()); err != nil {
				return err
			}
			return r.printCart(cmd)
		}),
	}
}
