// internal/adapters/in/http/handler/helper_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/middleware"
	"storefront/internal/application/usecase"
	"storefront/internal/domain/common"
)

const maxBodyBytes = 1 << 20

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Field     string `json:"field,omitempty"`
	Required  string `json:"required,omitempty"`
	ProductID string `json:"productId,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: strings.TrimSpace(msg)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid json body")
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// subject returns the verified uid or writes 401.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated"})
		return "", false
	}
	return uid, true
}

// writeDomainError maps the error taxonomy to a status code and body.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		denied *common.PermissionDeniedError
		verr   *common.ValidationError
		oos    *common.OutOfStockError
		txErr  *common.TransactionError
		invSes *common.InvalidSessionError
	)

	switch {
	case errors.Is(err, common.ErrAccountSuspended):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "account_suspended"})
	case errors.Is(err, common.ErrAccountDeactivated):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "account_deactivated"})
	case errors.As(err, &invSes):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_session", Message: invSes.Error()})
	case errors.Is(err, common.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "session_expired"})
	case errors.Is(err, common.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated"})
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "permission_denied", Required: denied.Required})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation_error", Field: verr.Field, Message: verr.Reason})
	case errors.As(err, &oos):
		available := oos.Available
		writeJSON(w, http.StatusConflict, errorBody{Error: "out_of_stock", ProductID: oos.ProductID, Available: &available})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.As(err, &txErr):
		logger.Error("transaction failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "transaction_failed"})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

// ============================================================
// DTO
// ============================================================

type effectDTO struct {
	Effect  string `json:"effect"`
	Target  string `json:"target,omitempty"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

func toEffectDTOs(in []usecase.EffectOutcome) []effectDTO {
	out := make([]effectDTO, 0, len(in))
	for _, o := range in {
		d := effectDTO{Effect: o.Effect, Target: o.Target, OK: o.OK(), Skipped: o.Skipped}
		if o.Err != nil {
			d.Error = o.Err.Error()
		}
		out = append(out, d)
	}
	return out
}
