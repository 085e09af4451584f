package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/repo"
)

// Handler exposes the quote computation endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Compute evaluates one cart against the requested discount rules.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "validation failed", fieldErrors(err))
			return
		}
	}
	result, err := h.Svc.Compute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, repo.ErrRuleNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		case errors.Is(err, ErrRuleInactive):
			common.JSONError(w, http.StatusUnprocessableEntity, "RULE_INACTIVE", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute quote", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

func fieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Namespace()+": failed "+fe.Tag())
	}
	return out
}
