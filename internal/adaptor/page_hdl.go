package adaptor

import (
	"net/http"

	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/internal/usecase"
	"storefront/internal/web"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PageHandler serves the public catalog pages
type PageHandler struct {
	*pageBase
	products usecase.ProductService
	comments usecase.CommentService
	captcha  usecase.CaptchaService
}

func NewPageHandler(base *pageBase, products usecase.ProductService, comments usecase.CommentService, captcha usecase.CaptchaService) *PageHandler {
	return &PageHandler{
		pageBase: base,
		products: products,
		comments: comments,
		captcha:  captcha,
	}
}

// detailPage is the data of the product detail template
type detailPage struct {
	Detail  *response.ProductDetail
	Captcha *response.Captcha
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListActive(r.Context(), 0)
	if err != nil {
		h.handleServiceError(w, r, err, "list products")
		return
	}

	v := h.view(r, "")
	v.Data = products
	h.render(w, http.StatusOK, "index", v)
}

// ByCategory handles GET /{categoryID}/?keyword=&page=
func (h *PageHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.uuidParam(w, r, "categoryID")
	if !ok {
		return
	}

	query := r.URL.Query()
	page, err := h.products.ListByCategory(r.Context(), categoryID, &request.ByCategoryRequest{
		Keyword: query.Get("keyword"),
		Page:    utils.ParseInt(query.Get("page"), 1),
	})
	if err != nil {
		h.handleServiceError(w, r, err, "list by category")
		return
	}

	v := h.view(r, page.Category.Name)
	v.Data = page
	h.render(w, http.StatusOK, "by_category", v)
}

// Detail handles GET /{categoryID}/{productID}/
func (h *PageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productParam(w, r)
	if !ok {
		return
	}
	h.renderDetail(w, r, productID, http.StatusOK, h.view(r, ""))
}

// PostComment handles POST /{categoryID}/{productID}/
func (h *PageHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productParam(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.ResponseBadRequest(w, "Invalid form", nil)
		return
	}

	req := &request.CommentRequest{
		Author:        r.PostForm.Get("author"),
		Content:       r.PostForm.Get("content"),
		CaptchaID:     r.PostForm.Get("captcha_id"),
		CaptchaAnswer: r.PostForm.Get("captcha"),
	}
	username, _ := utils.GetUsernameFromContext(r.Context())

	if _, err := h.comments.Submit(r.Context(), productID, username, req); err != nil {
		if fields, ok := utils.FieldErrors(err); ok {
			v := h.view(r, "")
			v.Errors = fields
			v.Form = formValues(r)
			delete(v.Form, "captcha")
			h.renderDetail(w, r, productID, http.StatusBadRequest, v)
			return
		}
		h.handleServiceError(w, r, err, "post comment")
		return
	}

	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

func (h *PageHandler) productParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if _, ok := h.uuidParam(w, r, "categoryID"); !ok {
		return uuid.Nil, false
	}
	return h.uuidParam(w, r, "productID")
}

func (h *PageHandler) renderDetail(w http.ResponseWriter, r *http.Request, productID uuid.UUID, status int, v *web.View) {
	detail, err := h.products.GetDetail(r.Context(), productID)
	if err != nil {
		h.handleServiceError(w, r, err, "product detail")
		return
	}

	data := detailPage{Detail: detail}
	if v.User == nil {
		if data.Captcha, err = h.captcha.New(r.Context()); err != nil {
			h.handleServiceError(w, r, err, "new captcha")
			return
		}
	}

	v.Title = detail.Product.Title
	v.Data = data
	h.render(w, status, "detail", v)
}

// StaticPage handles GET /pages/{page}/
func (h *PageHandler) StaticPage(w http.ResponseWriter, r *http.Request) {
	name := "pages/" + chi.URLParam(r, "page")
	if !h.renderer.Has(name) {
		h.log.Warn("Static page not found", zap.String("page", name))
		h.notFound(w, r)
		return
	}
	h.render(w, http.StatusOK, name, h.view(r, ""))
}

// NotFound renders the not found page for unmatched routes
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

// ServerError renders the generic error page; used after a recovered panic
func (h *PageHandler) ServerError(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusInternalServerError, "error", h.view(r, "Error"))
}
