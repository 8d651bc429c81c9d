// internal/domain/product/repository_port.go
package product

import "context"

// Repository is the persistence port for products/{productId}.
// GetByID and Update return common.ErrNotFound when the document is absent.
//
// Update reads the current product, runs mutate on it and writes the result in
// one transaction, so a concurrent stock decrement is never overwritten.
// An error from mutate aborts the write.
type Repository interface {
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, mutate func(*Product) error) (Product, error)
}

// Indexer is the outbound search-index contract: indexProduct({id, ...fields}).
type Indexer interface {
	IndexProduct(ctx context.Context, doc IndexDocument) error
}

const Collection = "products"
