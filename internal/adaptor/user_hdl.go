package adaptor

import (
	"net/http"

	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/internal/usecase"
	"storefront/pkg/utils"

	"go.uber.org/zap"
)

// UserHandler serves the admin endpoints for accounts and comment moderation
type UserHandler struct {
	apiBase
	service  usecase.UserService
	comments usecase.CommentService
}

func NewUserHandler(service usecase.UserService, comments usecase.CommentService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		apiBase:  apiBase{log: log.With(zap.String("handler", "user"))},
		service:  service,
		comments: comments,
	}
}

func paginatedRequest(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}

// ListUsers handles GET /api/admin/users/?actstate=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	req := &request.ListUsersRequest{
		PaginatedRequest: paginatedRequest(r),
		ActState:         r.URL.Query().Get("actstate"),
	}

	users, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// SendActivation handles POST /api/admin/users/send-activation/
func (h *UserHandler) SendActivation(w http.ResponseWriter, r *http.Request) {
	var req request.ResendActivationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sent, err := h.service.ResendActivation(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "send activation")
		return
	}

	utils.ResponseSuccess(w, "Activation mail sent", map[string]int{"sent": sent})
}

// ListComments handles GET /api/admin/comments/?product_id=
func (h *UserHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	req := &request.ListCommentsRequest{
		PaginatedRequest: paginatedRequest(r),
		ProductID:        r.URL.Query().Get("product_id"),
	}

	comments, err := h.comments.ListAll(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "list comments")
		return
	}

	utils.ResponseSuccess(w, "Comments retrieved successfully", comments)
}

// ModerateComment handles PUT /api/admin/comments/{id}
func (h *UserHandler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req request.ModerateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Moderate(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err, "moderate comment")
		return
	}

	utils.ResponseSuccess(w, "Comment updated", response.CommentToResponse(comment))
}
