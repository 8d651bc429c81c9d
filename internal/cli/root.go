// Package cli implements storectl, the operator CLI of the storefront.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/application/realtime"
	"storefront/internal/application/store"
	"storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/user"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string // "json" | "text"
	Operator string // admin uid used for privileged writes
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Runtime is what the commands operate on. It is built lazily so that
// --help works without credentials.
type Runtime struct {
	Products *usecase.ProductUsecase
	Roles    user.RoleWriter
	Users    user.Reader
	// Invalidate drops the cached permission verdicts of a subject.
	Invalidate func(subjectID string)
	// Carts, Checker and CartSource back the scratch cart store of
	// `cart show`, which never shares local storage or listeners with clients.
	Carts      *usecase.CartUsecase
	Checker    store.SubjectChecker
	CartSource realtime.Source[*cartdom.Cart]
	// Operator is the default admin uid (STOREFRONT_OPERATOR_UID).
	Operator string
}

// Factory builds the runtime; the returned func releases it.
type Factory func(ctx context.Context) (*Runtime, func() error, error)

// NewRootCommand creates the root command of storectl.
func NewRootCommand(factory Factory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storectl",
		Short: "Operate the storefront system of record",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Operator, "as", "", "admin uid to act as (defaults to STOREFRONT_OPERATOR_UID)")

	cmd.AddCommand(NewSeedCommand(opts, factory))
	cmd.AddCommand(NewRoleCommand(opts, factory))
	cmd.AddCommand(NewCartCommand(opts, factory))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withRuntime builds the runtime, runs fn and releases it.
func withRuntime(ctx context.Context, factory Factory, fn func(rt *Runtime) error) (err error) {
	if factory == nil {
		return fmt.Errorf("storectl: no runtime factory")
	}
	rt, release, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("storectl: init: %w", err)
	}
	if release != nil {
		defer func() {
			if cerr := release(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	return fn(rt)
}

func (o *RootOptions) operator(rt *Runtime) (string, error) {
	if o.Operator != "" {
		return o.Operator, nil
	}
	if rt.Operator != "" {
		return rt.Operator, nil
	}
	return "", fmt.Errorf("no operator uid: pass --as or set STOREFRONT_OPERATOR_UID")
}
