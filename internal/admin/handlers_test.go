package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promo-engine/internal/discount"
	"github.com/noah-isme/promo-engine/internal/repo"
)

type fakeStore struct {
	rules      map[string]discount.Rule
	selections map[uuid.UUID][]discount.SelectionRef
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rules:      make(map[string]discount.Rule),
		selections: make(map[uuid.UUID][]discount.SelectionRef),
	}
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (discount.Rule, error) {
	rule, ok := f.rules[code]
	if !ok {
		return discount.Rule{}, repo.ErrRuleNotFound
	}
	return rule, nil
}

func (f *fakeStore) Create(_ context.Context, rule discount.Rule) (discount.Rule, error) {
	if _, exists := f.rules[rule.Code]; exists {
		return discount.Rule{}, &pgconn.PgError{Code: "23505"}
	}
	rule.ID = uuid.New()
	f.rules[rule.Code] = rule
	return rule, nil
}

func (f *fakeStore) Update(_ context.Context, rule discount.Rule) (discount.Rule, error) {
	existing, ok := f.rules[rule.Code]
	if !ok {
		return discount.Rule{}, repo.ErrRuleNotFound
	}
	rule.ID = existing.ID
	f.rules[rule.Code] = rule
	return rule, nil
}

func (f *fakeStore) Archive(_ context.Context, code string) error {
	rule, ok := f.rules[code]
	if !ok {
		return repo.ErrRuleNotFound
	}
	rule.Active = false
	f.rules[code] = rule
	return nil
}

func (f *fakeStore) ReplaceSelection(_ context.Context, ruleID uuid.UUID, refs []discount.SelectionRef) error {
	f.selections[ruleID] = refs
	return nil
}

func newRouter(store RuleStore) http.Handler {
	h := &Handler{Rules: store, Validate: validator.New()}
	r := chi.NewRouter()
	r.Route("/admin/rules", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{code}", h.Get)
		r.Put("/{code}", h.Update)
		r.Delete("/{code}", h.Archive)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateRule(t *testing.T) {
	store := newFakeStore()
	router := newRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":       "SPRING",
		"name":       "Spring sale",
		"percentOff": "15",
		"target":     "order",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, ok := store.rules["SPRING"]
	require.True(t, ok)
	require.True(t, stored.Active)
	require.Equal(t, "15", stored.PercentOff.String())
	require.Equal(t, discount.TargetOrder, stored.Target)
}

func TestCreateRuleDuplicateCode(t *testing.T) {
	store := newFakeStore()
	router := newRouter(store)

	body := map[string]any{"code": "DUP", "percentOff": "5"}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/admin/rules", body).Code)
	require.Equal(t, http.StatusConflict, doJSON(t, router, http.MethodPost, "/admin/rules", body).Code)
}

func TestCreateRuleRejectsBadPercent(t *testing.T) {
	router := newRouter(newFakeStore())
	rec := doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":       "BAD",
		"percentOff": "150",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRuleRequiresSelectionRefs(t *testing.T) {
	router := newRouter(newFakeStore())
	rec := doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":       "SEL",
		"percentOff": "10",
		"target":     "selection",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRuleStoresSelection(t *testing.T) {
	store := newFakeStore()
	router := newRouter(store)

	productID := uuid.NewString()
	rec := doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":       "SEL",
		"percentOff": "10",
		"target":     "selection",
		"selection":  []map[string]string{{"productId": productID}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rule := store.rules["SEL"]
	refs := store.selections[rule.ID]
	require.Len(t, refs, 1)
	require.Equal(t, productID, refs[0].ProductID.String())
	require.Equal(t, uuid.Nil, refs[0].VariantID)
}

func TestUpdateRuleNotFound(t *testing.T) {
	router := newRouter(newFakeStore())
	rec := doJSON(t, router, http.MethodPut, "/admin/rules/GONE", map[string]any{
		"code":       "GONE",
		"percentOff": "5",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchiveRule(t *testing.T) {
	store := newFakeStore()
	router := newRouter(store)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":       "OLD",
		"percentOff": "5",
	}).Code)

	rec := doJSON(t, router, http.MethodDelete, "/admin/rules/OLD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, store.rules["OLD"].Active)
}

func TestGetRule(t *testing.T) {
	store := newFakeStore()
	router := newRouter(store)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/admin/rules", map[string]any{
		"code":          "GIFTY",
		"percentOff":    "0",
		"giftProductId": uuid.NewString(),
	}).Code)

	rec := doJSON(t, router, http.MethodGet, "/admin/rules/GIFTY", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data ruleView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Equal(t, "GIFTY", envelope.Data.Code)
	require.NotEmpty(t, envelope.Data.GiftProductID)
	require.Empty(t, envelope.Data.GiftVariantID)

	require.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, "/admin/rules/NOPE", nil).Code)
}
