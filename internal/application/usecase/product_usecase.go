// internal/application/usecase/product_usecase.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/internal/domain/common"
	productdom "storefront/internal/domain/product"
	"storefront/internal/domain/user"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
)

var tracer = otel.Tracer("storefront/usecase")

// ProductResult separates the committed product from the best-effort index sync.
type ProductResult struct {
	Product productdom.Product `json:"product"`
	Effects []EffectOutcome    `json:"effects"`
}

// ProductUsecase runs admin product writes:
// role check -> field validation -> write -> search-index sync.
type ProductUsecase struct {
	auth    Authorizer
	repo    productdom.Repository
	indexer productdom.Indexer
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewProductUsecase(auth Authorizer, repo productdom.Repository, indexer productdom.Indexer, m *metrics.Metrics, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{
		auth:    auth,
		repo:    repo,
		indexer: indexer,
		metrics: m,
		logger:  logging.OrNop(logger).Named("product_usecase"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// =======================
// Queries
// =======================

// GetByID is world-readable.
func (u *ProductUsecase) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	return u.repo.GetByID(ctx, strings.TrimSpace(id))
}

// =======================
// Commands
// =======================

// CreateProduct requires the admin role. An empty id gets a generated one.
func (u *ProductUsecase) CreateProduct(ctx context.Context, subjectID, id string, f productdom.Fields) (ProductResult, error) {
	ctx, span := tracer.Start(ctx, "ProductUsecase.CreateProduct")
	defer span.End()

	if _, err := u.auth.CheckRole(ctx, subjectID, user.RoleAdmin); err != nil {
		span.SetStatus(codes.Error, "denied")
		return ProductResult{}, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = u.newID()
	}
	p, err := productdom.New(id, f, u.now())
	if err != nil {
		span.SetStatus(codes.Error, "validation")
		return ProductResult{}, err
	}

	saved, err := u.repo.Create(ctx, p)
	if err != nil {
		span.RecordError(err)
		return ProductResult{}, err
	}
	span.SetAttributes(attribute.String("product.id", saved.ID))
	u.logger.Info("product created", zap.String("productId", saved.ID), zap.String("subjectId", subjectID))

	return ProductResult{Product: saved, Effects: []EffectOutcome{syncIndex(ctx, u.logger, u.metrics, u.indexer, saved)}}, nil
}

// UpdateProduct applies the non-nil fields of f to the stored product.
func (u *ProductUsecase) UpdateProduct(ctx context.Context, subjectID, id string, f productdom.Fields) (ProductResult, error) {
	ctx, span := tracer.Start(ctx, "ProductUsecase.UpdateProduct", traceAttrs(id))
	defer span.End()

	if _, err := u.auth.CheckRole(ctx, subjectID, user.RoleAdmin); err != nil {
		span.SetStatus(codes.Error, "denied")
		return ProductResult{}, err
	}
	return u.update(ctx, strings.TrimSpace(id), f)
}

// DeactivateProduct hides a product from checkout without deleting it.
func (u *ProductUsecase) DeactivateProduct(ctx context.Context, subjectID, id string) (ProductResult, error) {
	ctx, span := tracer.Start(ctx, "ProductUsecase.DeactivateProduct", traceAttrs(id))
	defer span.End()

	if _, err := u.auth.CheckRole(ctx, subjectID, user.RoleAdmin); err != nil {
		span.SetStatus(codes.Error, "denied")
		return ProductResult{}, err
	}
	inactive := false
	return u.update(ctx, strings.TrimSpace(id), productdom.Fields{Active: &inactive})
}

func (u *ProductUsecase) update(ctx context.Context, id string, f productdom.Fields) (ProductResult, error) {
	if id == "" {
		return ProductResult{}, common.NewValidationError("id", "required")
	}
	now := u.now()
	saved, err := u.repo.Update(ctx, id, func(p *productdom.Product) error {
		p.Apply(f, now)
		return p.Validate()
	})
	if err != nil {
		return ProductResult{}, err
	}
	u.logger.Info("product updated", zap.String("productId", saved.ID))

	return ProductResult{Product: saved, Effects: []EffectOutcome{syncIndex(ctx, u.logger, u.metrics, u.indexer, saved)}}, nil
}

func traceAttrs(productID string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("product.id", strings.TrimSpace(productID)))
}
