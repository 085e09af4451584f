package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/noah-isme/promo-engine/internal/common"
)

// TokenHandler issues access tokens for the administrative API. Credentials
// are a single operator account configured from the environment; the stored
// value is an argon2id hash, never the password itself.
type TokenHandler struct {
	Service      *Service
	AdminUser    string
	AdminPwdHash string
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Token verifies operator credentials and returns a signed access token.
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.AdminUser == "" || h.AdminPwdHash == "" {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "token issuance not configured", nil)
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.Username) != h.AdminUser {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", nil)
		return
	}
	ok, err := argon2id.ComparePasswordAndHash(req.Password, h.AdminPwdHash)
	if err != nil || !ok {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", nil)
		return
	}
	token, expiresAt, err := h.Service.SignAccessToken(h.AdminUser)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to sign token", nil)
		return
	}
	common.JSONData(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}
