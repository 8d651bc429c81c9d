package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storefront/internal/application/usecase"
	"storefront/internal/domain/common"
	productdom "storefront/internal/domain/product"
)

// seedFile is the YAML layout read by `storectl seed`.
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Description       string `yaml:"description"`
	Price             string `yaml:"price"`
	QuantityAvailable int    `yaml:"quantityAvailable"`
	Featured          bool   `yaml:"featured"`
	Category          string `yaml:"category"`
	ImageURL          string `yaml:"imageUrl"`
}

func (s seedProduct) fields() (productdom.Fields, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s.Price))
	if err != nil {
		return productdom.Fields{}, common.NewValidationError("price", "not a decimal")
	}
	f := productdom.Fields{
		Name:              &s.Name,
		Description:       &s.Description,
		Price:             &price,
		QuantityAvailable: &s.QuantityAvailable,
		Featured:          &s.Featured,
	}
	if s.Category != "" {
		f.Category = &s.Category
	}
	if s.ImageURL != "" {
		f.ImageURL = &s.ImageURL
	}
	return f, nil
}

// SeedResult is one line of the seed report.
type SeedResult struct {
	ID     string `json:"id"`
	Status string `json:"status"` // created | failed
	Error  string `json:"error,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions, factory Factory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create products from a YAML file",
		Long: `Create the products listed in a YAML file.

Products are created as the operator uid, which must hold the admin role.
A failing product is reported and the remaining ones are still created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			var sf seedFile
			if err := yaml.Unmarshal(raw, &sf); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			return withRuntime(cmd.Context(), factory, func(rt *Runtime) error {
				return runSeed(cmd.Context(), rootOpts, rt, sf, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a top-level products list")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(ctx context.Context, opts *RootOptions, rt *Runtime, sf seedFile, w io.Writer) error {
	operator, err := opts.operator(rt)
	if err != nil {
		return err
	}

	if rt.Products == nil {
		return fmt.Errorf("product usecase not configured")
	}

	results := make([]SeedResult, 0, len(sf.Products))
	failed := 0
	for _, sp := range sf.Products {
		res := SeedResult{ID: sp.ID, Status: "created"}
		f, err := sp.fields()
		if err == nil {
			var out usecase.ProductResult
			if out, err = rt.Products.CreateProduct(ctx, operator, sp.ID, f); err == nil {
				res.ID = out.Product.ID
			}
		}
		if err != nil {
			var denied *common.PermissionDeniedError
			if errors.As(err, &denied) {
				return fmt.Errorf("operator %s cannot create products: %w", operator, err)
			}
			res.Status, res.Error = "failed", err.Error()
			failed++
		}
		results = append(results, res)
	}

	p := printer{format: opts.Format, w: w}
	if err := p.emit(results, func(io.Writer) {
		for _, r := range results {
			if r.Error != "" {
				p.linef("%-24s %s (%s)", r.ID, r.Status, r.Error)
				continue
			}
			p.linef("%-24s %s", r.ID, r.Status)
		}
		p.linef("%d created, %d failed", len(results)-failed, failed)
	}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d products failed", failed, len(results))
	}
	return nil
}
