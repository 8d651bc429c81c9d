// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"storefront/internal/domain/common"
	productdom "storefront/internal/domain/product"
)

// ProductRepositoryFS implements product.Repository on products/{productId}.
// Prices are stored as numbers and rounded to cents on read.
type ProductRepositoryFS struct {
	Client *firestore.Client
}

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(productdom.Collection)
}

func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if r == nil || r.Client == nil {
		return productdom.Product{}, errors.New("product_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, common.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return productdom.Product{}, common.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return productFromData(id, snap.Data()), nil
}

// Create fails with a ValidationError on "id" when the document already exists.
func (r *ProductRepositoryFS) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if r == nil || r.Client == nil {
		return productdom.Product{}, errors.New("product_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return productdom.Product{}, common.NewValidationError("id", "required")
	}

	_, err := r.col().Doc(p.ID).Create(ctx, productToDoc(p))
	if err != nil {
		if isAlreadyExists(err) {
			return productdom.Product{}, common.NewValidationError("id", "already exists")
		}
		return productdom.Product{}, err
	}
	return p, nil
}

// Update re-reads the product inside a transaction, applies mutate and writes
// the full document back. A checkout that decremented stock in between makes
// Firestore retry the transaction against the new quantity.
func (r *ProductRepositoryFS) Update(ctx context.Context, id string, mutate func(*productdom.Product) error) (productdom.Product, error) {
	if r == nil || r.Client == nil {
		return productdom.Product{}, errors.New("product_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	ref := r.col().Doc(id)

	var out productdom.Product
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return common.ErrNotFound
			}
			return err
		}
		cur := productFromData(snap.Ref.ID, snap.Data())
		next := cur
		if err := mutate(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
		out = next
		return tx.Set(ref, productToDoc(next))
	})
	if err != nil {
		return productdom.Product{}, err
	}
	return out, nil
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

func productToDoc(p productdom.Product) map[string]any {
	return map[string]any{
		"name":              p.Name,
		"description":       p.Description,
		"price":             common.MoneyToFloat(p.Price),
		"quantityAvailable": p.QuantityAvailable,
		"active":            p.Active,
		"featured":          p.Featured,
		"rating":            p.Rating,
		"reviewCount":       p.ReviewCount,
		"imageUrl":          p.ImageURL,
		"category":          p.Category,
		"createdAt":         p.CreatedAt.UTC(),
		"updatedAt":         p.UpdatedAt.UTC(),
	}
}

func productFromData(id string, raw map[string]any) productdom.Product {
	p := productdom.Product{
		ID:                id,
		Name:              strings.TrimSpace(asString(raw["name"])),
		Description:       strings.TrimSpace(asString(raw["description"])),
		Price:             common.MoneyFromFloat(asFloat(raw["price"])),
		QuantityAvailable: asInt(raw["quantityAvailable"]),
		Active:            asBool(raw["active"]),
		Featured:          asBool(raw["featured"]),
		Rating:            asFloat(raw["rating"]),
		ReviewCount:       asInt(raw["reviewCount"]),
		ImageURL:          asString(raw["imageUrl"]),
		Category:          asString(raw["category"]),
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		p.CreatedAt = t
	}
	if t, ok := asTime(raw["updatedAt"]); ok {
		p.UpdatedAt = t
	}
	return p
}

// decrementStock is the stock update applied inside the checkout transaction.
func decrementStock(p productdom.Product, qty int, at time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "quantityAvailable", Value: p.QuantityAvailable - qty},
		{Path: "updatedAt", Value: at.UTC()},
	}
}
