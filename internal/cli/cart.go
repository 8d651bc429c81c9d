package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storefront/internal/adapters/out/localstore"
	"storefront/internal/application/realtime"
	"storefront/internal/application/store"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
)

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions, factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect carts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <uid>",
		Short: "Print a cart and its derived totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), factory, func(rt *Runtime) error {
				return runCartShow(cmd.Context(), rootOpts, rt, args[0], cmd.OutOrStdout())
			})
		},
	})
	return cmd
}

type cartShowResult struct {
	Cart   *cartdom.Cart  `json:"cart"`
	Totals cartdom.Totals `json:"totals"`
}

func runCartShow(ctx context.Context, opts *RootOptions, rt *Runtime, uid string, w io.Writer) error {
	if rt.Carts == nil || rt.Checker == nil || rt.CartSource == nil {
		return fmt.Errorf("cart store not configured")
	}
	subs := realtime.NewManager[*cartdom.Cart]("storectl-carts", rt.CartSource, nil, nil)
	defer subs.UnsubscribeAll()
	cart := store.NewCartStore(rt.Carts, rt.Checker, subs, localstore.NewMemory(), rt.Carts.Pricing(), nil)
	if err := cart.Load(ctx, uid); err != nil {
		return fmt.Errorf("load cart of %s: %w", uid, err)
	}
	defer cart.Reset(ctx)

	res := cartShowResult{Cart: cart.Cart(), Totals: cart.Totals()}
	p := printer{format: opts.Format, w: w}
	return p.emit(res, func(io.Writer) {
		if res.Cart.IsEmpty() {
			p.linef("cart of %s is empty", uid)
			return
		}
		for _, it := range res.Cart.Items {
			p.linef("%-16s %-24s %3d x %8s = %8s", it.ID, it.Name, it.Quantity,
				it.Price.StringFixed(common.MoneyScale), it.LineTotal().StringFixed(common.MoneyScale))
		}
		t := res.Totals
		p.linef("items     %d", t.Items)
		p.linef("subtotal  %s", t.Subtotal.StringFixed(common.MoneyScale))
		p.linef("tax       %s", t.Tax.StringFixed(common.MoneyScale))
		p.linef("shipping  %s", t.Shipping.StringFixed(common.MoneyScale))
		p.linef("total     %s", t.GrandTotal.StringFixed(common.MoneyScale))
	})
}
