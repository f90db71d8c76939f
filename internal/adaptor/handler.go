package adaptor

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"storefront/internal/usecase"
	"storefront/internal/web"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Product  *ProductHandler
	Category *CategoryHandler
	Page     *PageHandler
	Account  *AccountHandler
}

func NewHandler(service *usecase.Service, renderer *web.Renderer, config *utils.Config, log *zap.Logger) *Handler {
	pages := newPageBase(service.Category, renderer, log)
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, service.Comment, log),
		Product:  NewProductHandler(service.Product, service.Comment, log),
		Category: NewCategoryHandler(service.Category, log),
		Page:     NewPageHandler(pages, service.Product, service.Comment, service.Captcha),
		Account:  NewAccountHandler(pages, service, config),
	}
}

// apiBase maps service errors onto JSON responses
type apiBase struct {
	log *zap.Logger
}

func (h apiBase) handleServiceError(w http.ResponseWriter, err error, operation string) {
	if fields, ok := utils.FieldErrors(err); ok {
		h.log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", fields)
		return
	}

	switch {
	case errors.Is(err, utils.ErrNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, utils.ErrUnauthorized):
		h.log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, utils.ErrForbidden):
		h.log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, utils.ErrIntegrity), errors.Is(err, utils.ErrConflict):
		h.log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, utils.ErrBadSignature):
		h.log.Warn(operation+" failed - bad signature", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeJSON reads the request body, answering 400 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// uuidParam parses a chi URL parameter, answering 404 itself on failure
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseNotFound(w, name+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func sessionMeta(r *http.Request) usecase.SessionMeta {
	return usecase.SessionMeta{UserAgent: r.UserAgent(), IPAddress: clientIP(r)}
}

// safeRedirect accepts only local absolute paths
func safeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
