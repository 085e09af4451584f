package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/discount"
	"github.com/noah-isme/promo-engine/internal/events"
	"github.com/noah-isme/promo-engine/internal/repo"
)

// RuleStore persists discount rules. Implemented by repo.Rules.
type RuleStore interface {
	GetByCode(ctx context.Context, code string) (discount.Rule, error)
	Create(ctx context.Context, rule discount.Rule) (discount.Rule, error)
	Update(ctx context.Context, rule discount.Rule) (discount.Rule, error)
	Archive(ctx context.Context, code string) error
	ReplaceSelection(ctx context.Context, ruleID uuid.UUID, refs []discount.SelectionRef) error
}

// Handler exposes administrative rule management endpoints.
type Handler struct {
	Rules    RuleStore
	Bus      *events.Bus
	Validate *validator.Validate
	Logger   zerolog.Logger
}

type rulePayload struct {
	Code              string             `json:"code" validate:"required"`
	Name              string             `json:"name"`
	PercentOff        string             `json:"percentOff"`
	AmountOff         string             `json:"amountOff"`
	AmountCurrency    string             `json:"amountCurrency" validate:"omitempty,len=3"`
	AmountTaxIncluded bool               `json:"amountTaxIncluded"`
	Target            string             `json:"target" validate:"omitempty,oneof=order product cheapest selection"`
	TargetProductID   string             `json:"targetProductId" validate:"omitempty,uuid"`
	ExcludeDiscounted bool               `json:"excludeDiscounted"`
	FreeShipping      bool               `json:"freeShipping"`
	GiftProductID     string             `json:"giftProductId" validate:"omitempty,uuid"`
	GiftVariantID     string             `json:"giftVariantId" validate:"omitempty,uuid"`
	Active            *bool              `json:"active"`
	ValidFrom         *time.Time         `json:"validFrom"`
	ValidTo           *time.Time         `json:"validTo"`
	Selection         []selectionPayload `json:"selection"`
}

type selectionPayload struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	VariantID string `json:"variantId" validate:"omitempty,uuid"`
}

type ruleView struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Name              string     `json:"name"`
	PercentOff        string     `json:"percentOff"`
	AmountOff         string     `json:"amountOff"`
	AmountCurrency    string     `json:"amountCurrency,omitempty"`
	AmountTaxIncluded bool       `json:"amountTaxIncluded"`
	Target            string     `json:"target"`
	TargetProductID   string     `json:"targetProductId,omitempty"`
	ExcludeDiscounted bool       `json:"excludeDiscounted"`
	FreeShipping      bool       `json:"freeShipping"`
	GiftProductID     string     `json:"giftProductId,omitempty"`
	GiftVariantID     string     `json:"giftVariantId,omitempty"`
	Active            bool       `json:"active"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidTo           *time.Time `json:"validTo,omitempty"`
}

// Get returns one rule by code.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Rules == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	rule, err := h.Rules.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, repo.ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "rule not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load rule", nil)
		return
	}
	common.JSONData(w, http.StatusOK, toView(rule))
}

// Create inserts a new rule and its selection restriction.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Rules == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	rule, refs, err := toRule(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Rules.Create(r.Context(), rule)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "rule code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create rule", nil)
		return
	}
	if len(refs) > 0 {
		if err := h.Rules.ReplaceSelection(r.Context(), created.ID, refs); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to store selection", nil)
			return
		}
	}
	h.emit(r.Context(), events.TopicRuleCreated, created)
	common.JSONData(w, http.StatusCreated, toView(created))
}

// Update replaces an existing rule identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Rules == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	payload.Code = code
	rule, refs, err := toRule(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Rules.Update(r.Context(), rule)
	if err != nil {
		if errors.Is(err, repo.ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "rule not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update rule", nil)
		return
	}
	if err := h.Rules.ReplaceSelection(r.Context(), updated.ID, refs); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to store selection", nil)
		return
	}
	h.emit(r.Context(), events.TopicRuleUpdated, updated)
	common.JSONData(w, http.StatusOK, toView(updated))
}

// Archive deactivates a rule without deleting it.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.Rules == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	if err := h.Rules.Archive(r.Context(), code); err != nil {
		if errors.Is(err, repo.ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "rule not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to archive rule", nil)
		return
	}
	h.emit(r.Context(), events.TopicRuleArchived, discount.Rule{Code: code})
	common.JSONData(w, http.StatusOK, map[string]string{"code": code, "status": "archived"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (rulePayload, bool) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return rulePayload{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "validation failed", nil)
			return rulePayload{}, false
		}
	}
	return payload, true
}

func (h *Handler) emit(ctx context.Context, topic string, rule discount.Rule) {
	if h.Bus == nil {
		return
	}
	if _, err := h.Bus.Emit(ctx, topic, rule.ID, map[string]string{"code": rule.Code}); err != nil {
		h.Logger.Warn().Err(err).Str("code", rule.Code).Str("topic", topic).Msg("emit rule event")
	}
}

func toRule(payload rulePayload) (discount.Rule, []discount.SelectionRef, error) {
	rule := discount.Rule{
		Code:              strings.TrimSpace(payload.Code),
		Name:              strings.TrimSpace(payload.Name),
		PercentOff:        decimal.Zero,
		AmountOff:         decimal.Zero,
		AmountCurrency:    strings.ToUpper(strings.TrimSpace(payload.AmountCurrency)),
		AmountTaxIncluded: payload.AmountTaxIncluded,
		Target:            discount.ParseTarget(payload.Target),
		ExcludeDiscounted: payload.ExcludeDiscounted,
		FreeShipping:      payload.FreeShipping,
		Active:            true,
		ValidFrom:         payload.ValidFrom,
		ValidTo:           payload.ValidTo,
	}
	if payload.Active != nil {
		rule.Active = *payload.Active
	}

	var err error
	if payload.PercentOff != "" {
		if rule.PercentOff, err = decimal.NewFromString(payload.PercentOff); err != nil {
			return discount.Rule{}, nil, errors.New("invalid percentOff")
		}
		if rule.PercentOff.IsNegative() || rule.PercentOff.GreaterThan(decimal.NewFromInt(100)) {
			return discount.Rule{}, nil, errors.New("percentOff must be between 0 and 100")
		}
	}
	if payload.AmountOff != "" {
		if rule.AmountOff, err = decimal.NewFromString(payload.AmountOff); err != nil {
			return discount.Rule{}, nil, errors.New("invalid amountOff")
		}
		if rule.AmountOff.IsNegative() {
			return discount.Rule{}, nil, errors.New("amountOff must not be negative")
		}
		if rule.AmountCurrency == "" {
			return discount.Rule{}, nil, errors.New("amountCurrency is required with amountOff")
		}
	}
	if payload.TargetProductID != "" {
		if rule.TargetProductID, err = uuid.Parse(payload.TargetProductID); err != nil {
			return discount.Rule{}, nil, errors.New("invalid targetProductId")
		}
	}
	if rule.Target == discount.TargetProduct && rule.TargetProductID == uuid.Nil {
		return discount.Rule{}, nil, errors.New("targetProductId is required for product target")
	}
	if payload.GiftProductID != "" {
		gift := &discount.Gift{}
		if gift.ProductID, err = uuid.Parse(payload.GiftProductID); err != nil {
			return discount.Rule{}, nil, errors.New("invalid giftProductId")
		}
		if payload.GiftVariantID != "" {
			if gift.VariantID, err = uuid.Parse(payload.GiftVariantID); err != nil {
				return discount.Rule{}, nil, errors.New("invalid giftVariantId")
			}
		}
		rule.Gift = gift
	}

	refs := make([]discount.SelectionRef, 0, len(payload.Selection))
	for _, sel := range payload.Selection {
		ref := discount.SelectionRef{}
		if ref.ProductID, err = uuid.Parse(sel.ProductID); err != nil {
			return discount.Rule{}, nil, errors.New("invalid selection productId")
		}
		if sel.VariantID != "" {
			if ref.VariantID, err = uuid.Parse(sel.VariantID); err != nil {
				return discount.Rule{}, nil, errors.New("invalid selection variantId")
			}
		}
		refs = append(refs, ref)
	}
	if rule.Target == discount.TargetSelection && len(refs) == 0 {
		return discount.Rule{}, nil, errors.New("selection is required for selection target")
	}
	return rule, refs, nil
}

func toView(rule discount.Rule) ruleView {
	view := ruleView{
		ID:                rule.ID.String(),
		Code:              rule.Code,
		Name:              rule.Name,
		PercentOff:        rule.PercentOff.String(),
		AmountOff:         rule.AmountOff.String(),
		AmountCurrency:    rule.AmountCurrency,
		AmountTaxIncluded: rule.AmountTaxIncluded,
		Target:            rule.Target.String(),
		ExcludeDiscounted: rule.ExcludeDiscounted,
		FreeShipping:      rule.FreeShipping,
		Active:            rule.Active,
		ValidFrom:         rule.ValidFrom,
		ValidTo:           rule.ValidTo,
	}
	if rule.TargetProductID != uuid.Nil {
		view.TargetProductID = rule.TargetProductID.String()
	}
	if rule.Gift != nil {
		view.GiftProductID = rule.Gift.ProductID.String()
		if rule.Gift.VariantID != uuid.Nil {
			view.GiftVariantID = rule.Gift.VariantID.String()
		}
	}
	return view
}
