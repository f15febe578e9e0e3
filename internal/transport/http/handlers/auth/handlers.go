package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/auth"
	"timesheet/internal/requestctx"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

type Handler struct {
	Issuer auth.Issuer
}

func NewHandler(issuer auth.Issuer) *Handler {
	return &Handler{Issuer: issuer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/token", h.HandleToken)
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("password", payload.Password, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	token, expiresAt, err := h.Issuer.Issue(payload.Password)
	switch {
	case errors.Is(err, auth.ErrTokensDisabled):
		api.Fail(w, http.StatusNotFound, "auth_disabled", "operator tokens are not configured", requestID)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		requestctx.Logger(r.Context()).Warn("operator token rejected")
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	case err != nil:
		requestctx.Logger(r.Context()).Error("operator token failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", requestID)
		return
	}

	api.Success(w, tokenResponse{Token: token, ExpiresAt: expiresAt}, requestID)
}
