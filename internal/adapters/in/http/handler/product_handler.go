// internal/adapters/in/http/handler/product_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/application/usecase"
	productdom "storefront/internal/domain/product"
	"storefront/internal/infra/logging"
)

// ProductHandler serves /api/products.
type ProductHandler struct {
	uc     *usecase.ProductUsecase
	logger *zap.Logger
}

func NewProductHandler(uc *usecase.ProductUsecase, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: logging.OrNop(logger).Named("product_handler")}
}

// ============================================================
// DTO
// ============================================================

type productDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantityAvailable"`
	Active            bool            `json:"active"`
	Featured          bool            `json:"featured"`
	Rating            float64         `json:"rating"`
	ReviewCount       int             `json:"reviewCount"`
	ImageURL          string          `json:"imageUrl,omitempty"`
	Category          string          `json:"category,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func toProductDTO(p productdom.Product) productDTO {
	return productDTO{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		QuantityAvailable: p.QuantityAvailable,
		Active:            p.Active,
		Featured:          p.Featured,
		Rating:            p.Rating,
		ReviewCount:       p.ReviewCount,
		ImageURL:          p.ImageURL,
		Category:          p.Category,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// productFieldsRequest: absent JSON fields stay nil ("keep" on update).
type productFieldsRequest struct {
	ID                string           `json:"id"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	QuantityAvailable *int             `json:"quantityAvailable"`
	Active            *bool            `json:"active"`
	Featured          *bool            `json:"featured"`
	ImageURL          *string          `json:"imageUrl"`
	Category          *string          `json:"category"`
}

func (req productFieldsRequest) fields() productdom.Fields {
	return productdom.Fields{
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		QuantityAvailable: req.QuantityAvailable,
		Active:            req.Active,
		Featured:          req.Featured,
		ImageURL:          req.ImageURL,
		Category:          req.Category,
	}
}

type productResponse struct {
	Product productDTO  `json:"product"`
	Effects []effectDTO `json:"effects"`
}

// ============================================================
// handlers
// ============================================================

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req productFieldsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.uc.CreateProduct(r.Context(), uid, req.ID, req.fields())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{Product: toProductDTO(res.Product), Effects: toEffectDTOs(res.Effects)})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req productFieldsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.uc.UpdateProduct(r.Context(), uid, chi.URLParam(r, "id"), req.fields())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: toProductDTO(res.Product), Effects: toEffectDTOs(res.Effects)})
}

// Deactivate is DELETE /api/products/{id}: the product stays, inactive.
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	res, err := h.uc.DeactivateProduct(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: toProductDTO(res.Product), Effects: toEffectDTOs(res.Effects)})
}
