// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/common"
)

// Product mirrors products/{productId}.
type Product struct {
	ID                string
	Name              string
	Description       string
	Price             decimal.Decimal
	QuantityAvailable int
	Active            bool
	Featured          bool
	Rating            float64
	ReviewCount       int
	ImageURL          string
	Category          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Fields is the writable part of a product used by create/update.
// A nil pointer on update means "keep the stored value".
type Fields struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	QuantityAvailable *int
	Active            *bool
	Featured          *bool
	ImageURL          *string
	Category          *string
}

// New builds a product from create fields. Required: name, description, price.
func New(id string, f Fields, now time.Time) (Product, error) {
	p := Product{
		ID:        strings.TrimSpace(id),
		Active:    true,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if f.Name == nil {
		return Product{}, common.NewValidationError("name", "required")
	}
	if f.Description == nil {
		return Product{}, common.NewValidationError("description", "required")
	}
	if f.Price == nil {
		return Product{}, common.NewValidationError("price", "required")
	}
	if f.QuantityAvailable == nil {
		zero := 0
		f.QuantityAvailable = &zero
	}
	p.Apply(f, now)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Apply copies non-nil fields onto p and touches UpdatedAt.
func (p *Product) Apply(f Fields, now time.Time) {
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.Description != nil {
		p.Description = strings.TrimSpace(*f.Description)
	}
	if f.Price != nil {
		p.Price = common.RoundMoney(*f.Price)
	}
	if f.QuantityAvailable != nil {
		p.QuantityAvailable = *f.QuantityAvailable
	}
	if f.Active != nil {
		p.Active = *f.Active
	}
	if f.Featured != nil {
		p.Featured = *f.Featured
	}
	if f.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*f.ImageURL)
	}
	if f.Category != nil {
		p.Category = strings.TrimSpace(*f.Category)
	}
	p.UpdatedAt = now.UTC()
}

// Validate enforces the business rules for a stored product.
func (p Product) Validate() error {
	if p.Name == "" {
		return common.NewValidationError("name", "required")
	}
	if p.Description == "" {
		return common.NewValidationError("description", "required")
	}
	if !p.Price.IsPositive() {
		return common.NewValidationError("price", "must be > 0")
	}
	if p.QuantityAvailable < 0 {
		return common.NewValidationError("quantityAvailable", "must be >= 0")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return common.NewValidationError("rating", "must be within 0..5")
	}
	if p.ReviewCount < 0 {
		return common.NewValidationError("reviewCount", "must be >= 0")
	}
	return nil
}

// CanFulfil reports whether qty units can be taken from stock.
func (p Product) CanFulfil(qty int) bool {
	return p.Active && qty > 0 && p.QuantityAvailable >= qty
}

// IndexDocument is the payload of the outbound indexProduct call: the id plus
// the searchable product fields.
type IndexDocument struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Price             float64   `json:"price"`
	QuantityAvailable int       `json:"quantityAvailable"`
	Active            bool      `json:"active"`
	Featured          bool      `json:"featured"`
	Rating            float64   `json:"rating"`
	ReviewCount       int       `json:"reviewCount"`
	Category          string    `json:"category,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToIndexDocument flattens p for the search index.
func (p Product) ToIndexDocument() IndexDocument {
	return IndexDocument{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             common.MoneyToFloat(p.Price),
		QuantityAvailable: p.QuantityAvailable,
		Active:            p.Active,
		Featured:          p.Featured,
		Rating:            p.Rating,
		ReviewCount:       p.ReviewCount,
		Category:          p.Category,
		ImageURL:          p.ImageURL,
		UpdatedAt:         p.UpdatedAt,
	}
}
