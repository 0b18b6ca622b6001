package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type meResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	tok, err := h.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageSignupSuccess, tokenResponse{Token: tok.Token, TokenType: tok.TokenType})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	tok, err := h.users.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, common.MessageLoginFailed, "")
			return
		}
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageLoginSuccess, tokenResponse{Token: tok.Token, TokenType: tok.TokenType})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, common.ErrorUnauthorized)
		return
	}

	if err := h.users.Logout(r.Context(), id.UserID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageLogoutSuccess, "")
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, err := h.users.Me(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageOK, meResponse{Username: id.UserName, Email: id.Email})
}
