// internal/adapters/in/http/handler/cart_handler.go
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/infra/logging"
)

// CartHandler serves /api/cart.
type CartHandler struct {
	uc     *usecase.CartUsecase
	logger *zap.Logger
}

func NewCartHandler(uc *usecase.CartUsecase, logger *zap.Logger) *CartHandler {
	return &CartHandler{uc: uc, logger: logging.OrNop(logger).Named("cart_handler")}
}

// Routes mounts the cart endpoints on r.
func (h *CartHandler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.clear)
	r.Post("/items", h.addItem)
	r.Put("/items/{id}", h.updateItem)
	r.Delete("/items/{id}", h.removeItem)
}

type cartResponse struct {
	Cart   *cartdom.Cart  `json:"cart"`
	Totals cartdom.Totals `json:"totals"`
}

func (h *CartHandler) respond(w http.ResponseWriter, c *cartdom.Cart) {
	writeJSON(w, http.StatusOK, cartResponse{Cart: c, Totals: h.uc.Pricing().Compute(c.Items)})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	c, err := h.uc.Get(r.Context(), uid)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, c)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	c, err := h.uc.AddItem(r.Context(), uid, strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, c)
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		badRequest(w, "quantity is required")
		return
	}
	c, err := h.uc.UpdateQuantity(r.Context(), uid, chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	c, err := h.uc.RemoveItem(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	c, err := h.uc.Clear(r.Context(), uid)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, c)
}
