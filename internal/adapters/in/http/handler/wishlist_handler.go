// internal/adapters/in/http/handler/wishlist_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/application/usecase"
	"storefront/internal/infra/logging"
)

// WishlistHandler serves /api/wishlist.
type WishlistHandler struct {
	uc     *usecase.WishlistUsecase
	logger *zap.Logger
}

func NewWishlistHandler(uc *usecase.WishlistUsecase, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{uc: uc, logger: logging.OrNop(logger).Named("wishlist_handler")}
}

func (h *WishlistHandler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Post("/items", h.add)
	r.Delete("/items/{id}", h.remove)
}

func (h *WishlistHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	wl, err := h.uc.Get(r.Context(), uid)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WishlistHandler) add(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID string `json:"productId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	wl, err := h.uc.Add(r.Context(), uid, req.ProductID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WishlistHandler) remove(w http.ResponseWriter, r *http.Request) {
	uid, ok := subject(w, r)
	if !ok {
		return
	}
	wl, err := h.uc.Remove(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}
