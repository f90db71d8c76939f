package adaptor

import (
	"net/http"

	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/internal/usecase"
	"storefront/pkg/utils"

	"go.uber.org/zap"
)

type ProductHandler struct {
	apiBase
	service  usecase.ProductService
	comments usecase.CommentService
}

func NewProductHandler(service usecase.ProductService, comments usecase.CommentService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		apiBase:  apiBase{log: log.With(zap.String("handler", "product"))},
		service:  service,
		comments: comments,
	}
}

// ListProducts handles GET /api/products/
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListActive(r.Context(), 0)
	if err != nil {
		h.handleServiceError(w, err, "list products")
		return
	}

	utils.ResponseSuccess(w, "Products retrieved successfully", response.ProductsToResponse(products))
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), productID)
	if err != nil {
		h.handleServiceError(w, err, "get product")
		return
	}

	utils.ResponseSuccess(w, "Product retrieved successfully", response.ProductDetailToResponse(detail))
}

// ListComments handles GET /api/products/{id}/comments/
func (h *ProductHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.comments.ListActive(r.Context(), productID)
	if err != nil {
		h.handleServiceError(w, err, "list comments")
		return
	}

	utils.ResponseSuccess(w, "Comments retrieved successfully", response.CommentsToResponse(comments))
}

// CreateComment handles POST /api/products/{id}/comments/. The product
// always comes from the URL.
func (h *ProductHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req request.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	username, _ := utils.GetUsernameFromContext(r.Context())
	comment, err := h.comments.Submit(r.Context(), productID, username, &req)
	if err != nil {
		h.handleServiceError(w, err, "create comment")
		return
	}

	utils.ResponseCreated(w, "Comment created", response.CommentToResponse(comment))
}
