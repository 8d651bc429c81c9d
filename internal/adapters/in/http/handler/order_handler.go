// internal/adapters/in/http/handler/order_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/application/usecase"
	orderdom "storefront/internal/domain/order"
	"storefront/internal/infra/logging"
)

// OrderHandler serves /api/orders.
type OrderHandler struct {
	uc     *usecase.OrderUsecase
	logger *zap.Logger
}

func NewOrderHandler(uc *usecase.OrderUsecase, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: logging.OrNop(logger).Named("order_handler")}
}

// Routes mounts the read endpoints. The write endpoints (Place, UpdateStatus)
// are mounted by the router behind the session-freshness check.
func (h *OrderHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type placeOrderRequest struct {
	Shipping orderdom.ShippingAddress `json:"shipping"`
	Items    []usecase.OrderLine      `json:"items"`
}

type orderResponse struct {
	Order   orderdom.Order `json:"order"`
	Effects []effectDTO    `json:"effects"`
}

// Place checks out. Without items the subject's cart is ordered and emptied.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.uc.ProcessOrder(r.Context(), uid, usecase.PlaceOrderInput{
		Items:    req.Items,
		Shipping: req.Shipping,
		FromCart: len(req.Items) == 0,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Order: res.Order, Effects: toEffectDTOs(res.Effects)})
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	orders, err := h.uc.ListOrders(r.Context(), uid, parseIntDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	o, err := h.uc.GetOrder(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateStatus is PATCH /api/orders/{id} {status}. Admin only.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.uc.UpdateOrderStatus(r.Context(), uid, chi.URLParam(r, "id"), orderdom.Status(req.Status))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
