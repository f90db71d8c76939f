package adaptor

import (
	"net/http"

	"storefront/internal/data/entity"
	"storefront/internal/dto/request"
	"storefront/internal/usecase"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler serves the JWT endpoints and the opaque token scheme
type AuthHandler struct {
	apiBase
	service usecase.AuthService
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		apiBase: apiBase{log: log.With(zap.String("handler", "auth"))},
		service: service,
	}
}

// ObtainToken handles POST /api/token/
func (h *AuthHandler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.service.ObtainTokenPair(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "obtain token")
		return
	}

	utils.ResponseSuccess(w, "Token issued", pair)
}

// RefreshToken handles POST /api/token/refresh/
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req request.TokenRefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	access, err := h.service.RefreshToken(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", access)
}

// VerifyToken handles POST /api/token/verify/
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req request.TokenVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.VerifyToken(r.Context(), &req); err != nil {
		h.handleServiceError(w, err, "verify token")
		return
	}

	utils.ResponseSuccess(w, "Token is valid", nil)
}

// TokenLogin handles POST /api/auth/token/login/
func (h *AuthHandler) TokenLogin(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), &req, entity.SessionAPI, sessionMeta(r))
	if err != nil {
		h.handleServiceError(w, err, "token login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", session)
}

// TokenLogout handles POST /api/auth/token/logout/. Only opaque tokens can be revoked.
func (h *AuthHandler) TokenLogout(w http.ResponseWriter, r *http.Request) {
	raw, _ := utils.GetTokenFromContext(r.Context())
	token, err := uuid.Parse(raw)
	if err != nil {
		utils.ResponseBadRequest(w, "Only Token credentials can be logged out", nil)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.handleServiceError(w, err, "token logout")
		return
	}

	utils.ResponseNoContent(w)
}
