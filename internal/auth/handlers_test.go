package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
)

func newTokenHandler(t *testing.T) *TokenHandler {
	t.Helper()
	svc, err := NewService(Config{Secret: "super-secret-key", AccessTokenTTL: time.Minute})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	hash, err := argon2id.CreateHash("hunter22", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &TokenHandler{Service: svc, AdminUser: "ops", AdminPwdHash: hash}
}

func postToken(t *testing.T, h *TokenHandler, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Token(rec, req)
	return rec
}

func TestTokenHandlerIssuesParsableToken(t *testing.T) {
	h := newTokenHandler(t)
	rec := postToken(t, h, "ops", "hunter22")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var envelope struct {
		Data tokenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	subject, err := h.Service.ParseAccessToken(envelope.Data.AccessToken)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if subject != "ops" {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestTokenHandlerRejectsWrongPassword(t *testing.T) {
	h := newTokenHandler(t)
	if rec := postToken(t, h, "ops", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestTokenHandlerRejectsUnknownUser(t *testing.T) {
	h := newTokenHandler(t)
	if rec := postToken(t, h, "intruder", "hunter22"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
