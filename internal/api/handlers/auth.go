package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/csmith1188/digipogs/internal/api/httpx"
	"github.com/csmith1188/digipogs/internal/api/validate"
	"github.com/csmith1188/digipogs/internal/auth"
	"github.com/csmith1188/digipogs/internal/services"
)

type AuthHandler struct {
	Users *services.UserService
	TM    *auth.TokenManager
}

func NewAuthHandler(us *services.UserService, tm *auth.TokenManager) *AuthHandler {
	return &AuthHandler{Users: us, TM: tm}
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username, Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	var errs validate.Errs
	for _, f := range []struct{ name, val string }{
		{"username", req.Username}, {"email", req.Email}, {"password", req.Password},
	} {
		if e := validate.Required(f.name, f.val); e != nil {
			errs = append(errs, *e)
		}
	}
	if e := validate.MaxLen("username", req.Username, 30); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
		return
	}
	u, err := h.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	access, refresh, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{AccessToken: access, RefreshToken: refresh})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	claims, isRefresh, err := h.TM.Parse(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	access, refresh, _, err := h.TM.GeneratePair(claims.UserID, claims.Permissions)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{AccessToken: access, RefreshToken: refresh})
}
