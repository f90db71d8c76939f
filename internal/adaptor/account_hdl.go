package adaptor

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/internal/usecase"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const profilePath = "/accounts/profile/"

// AccountHandler serves registration, login and the profile pages
type AccountHandler struct {
	*pageBase
	auth       usecase.AuthService
	users      usecase.UserService
	products   usecase.ProductService
	cookieName string
	secure     bool
}

func NewAccountHandler(base *pageBase, service *usecase.Service, config *utils.Config) *AccountHandler {
	return &AccountHandler{
		pageBase:   base,
		auth:       service.Auth,
		users:      service.User,
		products:   service.Product,
		cookieName: config.Session.CookieName,
		secure:     strings.HasPrefix(config.App.BaseURL, "https://"),
	}
}

func (h *AccountHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// userID is only called behind RequireLogin
func userID(r *http.Request) uuid.UUID {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

// formError re-renders a form page with the field errors of err. It
// returns false when err is not a validation error.
func (h *AccountHandler) formError(w http.ResponseWriter, r *http.Request, err error, name, title string, data any) bool {
	fields, ok := utils.FieldErrors(err)
	if !ok {
		return false
	}
	v := h.view(r, title)
	v.Errors = fields
	v.Form = formValues(r)
	v.Data = data
	h.render(w, http.StatusBadRequest, name, v)
	return true
}

func (h *AccountHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		utils.ResponseBadRequest(w, "Invalid form", nil)
		return false
	}
	return true
}

// ---------------- registration ----------------

// RegisterForm handles GET /accounts/register/
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	v := h.view(r, "Register")
	v.Form["send_messages"] = "on"
	h.render(w, http.StatusOK, "register", v)
}

// Register handles POST /accounts/register/
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	req := &request.RegisterRequest{
		Username:     r.PostForm.Get("username"),
		Email:        r.PostForm.Get("email"),
		FirstName:    r.PostForm.Get("first_name"),
		LastName:     r.PostForm.Get("last_name"),
		SendMessages: checkbox(r, "send_messages"),
		Password1:    r.PostForm.Get("password1"),
		Password2:    r.PostForm.Get("password2"),
	}

	if _, err := h.auth.Register(r.Context(), req); err != nil {
		if !h.formError(w, r, err, "register", "Register", nil) {
			h.handleServiceError(w, r, err, "register")
		}
		return
	}

	http.Redirect(w, r, "/accounts/register/done/", http.StatusSeeOther)
}

// RegisterDone handles GET /accounts/register/done/
func (h *AccountHandler) RegisterDone(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "register_done", h.view(r, "Registration complete"))
}

// Activate handles GET /accounts/register/activate/{sign}/. A broken link
// gets its own page, never an error status.
func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.auth.Activate(r.Context(), chi.URLParam(r, "sign"))
	switch {
	case errors.Is(err, utils.ErrBadSignature):
		h.render(w, http.StatusOK, "bad_signature", h.view(r, "Invalid activation link"))
	case err != nil:
		h.handleServiceError(w, r, err, "activate")
	case outcome == response.ActivationAlreadyDone:
		h.render(w, http.StatusOK, "activation_already_done", h.view(r, "Already activated"))
	default:
		h.render(w, http.StatusOK, "activation_done", h.view(r, "Account activated"))
	}
}

// ---------------- session ----------------

// LoginForm handles GET /accounts/login/
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	v := h.view(r, "Log in")
	v.Form["next"] = r.URL.Query().Get("next")
	h.render(w, http.StatusOK, "login", v)
}

// Login handles POST /accounts/login/
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	req := &request.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}

	session, err := h.auth.Login(r.Context(), req, entity.SessionWeb, sessionMeta(r))
	if err != nil {
		if !h.formError(w, r, err, "login", "Log in", nil) {
			h.handleServiceError(w, r, err, "login")
		}
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, safeRedirect(r.PostForm.Get("next"), profilePath), http.StatusSeeOther)
}

// Logout handles POST /accounts/logout/
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := utils.GetTokenFromContext(r.Context()); ok {
		if token, err := uuid.Parse(raw); err == nil {
			if err := h.auth.Logout(r.Context(), token); err != nil {
				h.log.Error("Failed to revoke session", zap.Error(err))
			}
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ---------------- profile ----------------

// Profile handles GET /accounts/profile/
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), userID(r))
	if err != nil {
		h.handleServiceError(w, r, err, "get profile")
		return
	}

	v := h.view(r, "Profile")
	v.Data = profile
	h.render(w, http.StatusOK, "profile", v)
}

// ProfileChangeForm handles GET /accounts/profile/change/
func (h *AccountHandler) ProfileChangeForm(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), userID(r))
	if err != nil {
		h.handleServiceError(w, r, err, "get profile")
		return
	}

	u := profile.User
	v := h.view(r, "Edit profile")
	v.Form = map[string]string{
		"username":      u.Username,
		"email":         u.Email,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"send_messages": checkedValue(u.SendMessages),
	}
	h.render(w, http.StatusOK, "profile_change", v)
}

// ProfileChange handles POST /accounts/profile/change/
func (h *AccountHandler) ProfileChange(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	req := &request.UpdateProfileRequest{
		Username:     r.PostForm.Get("username"),
		Email:        r.PostForm.Get("email"),
		FirstName:    r.PostForm.Get("first_name"),
		LastName:     r.PostForm.Get("last_name"),
		SendMessages: checkbox(r, "send_messages"),
	}

	if _, err := h.users.UpdateProfile(r.Context(), userID(r), req); err != nil {
		if !h.formError(w, r, err, "profile_change", "Edit profile", nil) {
			h.handleServiceError(w, r, err, "update profile")
		}
		return
	}

	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// PasswordChangeForm handles GET /accounts/password/change/
func (h *AccountHandler) PasswordChangeForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "password_change", h.view(r, "Change password"))
}

// PasswordChange handles POST /accounts/password/change/
func (h *AccountHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	req := &request.ChangePasswordRequest{
		OldPassword:  r.PostForm.Get("old_password"),
		NewPassword1: r.PostForm.Get("new_password1"),
		NewPassword2: r.PostForm.Get("new_password2"),
	}

	if err := h.auth.ChangePassword(r.Context(), userID(r), req); err != nil {
		if !h.formError(w, r, err, "password_change", "Change password", nil) {
			h.handleServiceError(w, r, err, "change password")
		}
		return
	}

	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// ProfileDeleteForm handles GET /accounts/profile/delete/
func (h *AccountHandler) ProfileDeleteForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "profile_delete", h.view(r, "Delete account"))
}

// ProfileDelete handles POST /accounts/profile/delete/: removes the
// account and logs the visitor out.
func (h *AccountHandler) ProfileDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.users.DeleteAccount(r.Context(), userID(r)); err != nil {
		h.handleServiceError(w, r, err, "delete account")
		return
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ---------------- own products ----------------

// productForm reads the product form. Parse problems come back as field errors.
func productForm(r *http.Request) (*request.ProductRequest, map[string]string) {
	fields := map[string]string{}

	price, err := decimal.NewFromString(strings.TrimSpace(r.PostForm.Get("price")))
	if err != nil {
		fields["price"] = "Enter a number."
	}

	req := &request.ProductRequest{
		CategoryID:   r.PostForm.Get("category_id"),
		Title:        r.PostForm.Get("title"),
		Content:      r.PostForm.Get("content"),
		Price:        price,
		Manufacturer: r.PostForm.Get("manufacturer"),
		IsActive:     checkbox(r, "is_active"),
		Images:       utils.NonEmpty(strings.Split(r.PostForm.Get("images"), "\n")),
	}
	if image := strings.TrimSpace(r.PostForm.Get("image")); image != "" {
		req.Image = &image
	}

	return req, fields
}

func productFormValues(detail *response.ProductDetail) map[string]string {
	p := detail.Product
	images := make([]string, 0, len(detail.Images))
	for _, img := range detail.Images {
		images = append(images, img.Image)
	}
	values := map[string]string{
		"category_id":  p.CategoryID.String(),
		"title":        p.Title,
		"content":      p.Content,
		"price":        p.Price.StringFixed(2),
		"manufacturer": p.Manufacturer,
		"images":       strings.Join(images, "\n"),
		"is_active":    checkedValue(p.IsActive),
	}
	if p.Image != nil {
		values["image"] = *p.Image
	}
	return values
}

func (h *AccountHandler) renderProductForm(w http.ResponseWriter, r *http.Request, status int, title string, values, errs map[string]string) {
	subcategories, err := h.categories.ListSubcategories(r.Context(), nil)
	if err != nil {
		h.handleServiceError(w, r, err, "list subcategories")
		return
	}

	v := h.view(r, title)
	v.Form = values
	if errs != nil {
		v.Errors = errs
	}
	v.Data = subcategories
	h.render(w, status, "product_form", v)
}

// saveProduct creates the product when productID is nil, updates it otherwise
func (h *AccountHandler) saveProduct(w http.ResponseWriter, r *http.Request, productID *uuid.UUID, title string) {
	if !h.parseForm(w, r) {
		return
	}

	req, fields := productForm(r)
	var err error
	if len(fields) > 0 {
		err = utils.ValidationErrorFrom(fields)
	} else if productID == nil {
		_, err = h.products.Create(r.Context(), userID(r), req)
	} else {
		_, err = h.products.Update(r.Context(), userID(r), *productID, req)
	}

	if err != nil {
		if errs, ok := utils.FieldErrors(err); ok {
			h.renderProductForm(w, r, http.StatusBadRequest, title, formValues(r), errs)
			return
		}
		h.handleServiceError(w, r, err, "save product")
		return
	}

	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// ProductAddForm handles GET /accounts/profile/add/
func (h *AccountHandler) ProductAddForm(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, http.StatusOK, "Add product", map[string]string{"is_active": "on"}, nil)
}

// ProductAdd handles POST /accounts/profile/add/
func (h *AccountHandler) ProductAdd(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, nil, "Add product")
}

// ProductDetail handles GET /accounts/profile/{productID}/
func (h *AccountHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.uuidParam(w, r, "productID")
	if !ok {
		return
	}

	detail, err := h.products.GetOwn(r.Context(), userID(r), productID)
	if err != nil {
		h.handleServiceError(w, r, err, "get own product")
		return
	}

	v := h.view(r, detail.Product.Title)
	v.Data = detail
	h.render(w, http.StatusOK, "profile_product", v)
}

// ProductChangeForm handles GET /accounts/profile/change/{productID}/
func (h *AccountHandler) ProductChangeForm(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.uuidParam(w, r, "productID")
	if !ok {
		return
	}

	detail, err := h.products.GetOwn(r.Context(), userID(r), productID)
	if err != nil {
		h.handleServiceError(w, r, err, "get own product")
		return
	}

	h.renderProductForm(w, r, http.StatusOK, "Edit product", productFormValues(detail), nil)
}

// ProductChange handles POST /accounts/profile/change/{productID}/
func (h *AccountHandler) ProductChange(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.uuidParam(w, r, "productID")
	if !ok {
		return
	}
	h.saveProduct(w, r, &productID, "Edit product")
}

// ProductDeleteForm handles GET /accounts/profile/delete/{productID}/
func (h *AccountHandler) ProductDeleteForm(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.uuidParam(w, r, "productID")
	if !ok {
		return
	}

	detail, err := h.products.GetOwn(r.Context(), userID(r), productID)
	if err != nil {
		h.handleServiceError(w, r, err, "get own product")
		return
	}

	v := h.view(r, "Delete product")
	v.Data = detail.Product
	h.render(w, http.StatusOK, "product_delete", v)
}

// ProductDelete handles POST /accounts/profile/delete/{productID}/
func (h *AccountHandler) ProductDelete(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.uuidParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), userID(r), productID); err != nil {
		h.handleServiceError(w, r, err, "delete product")
		return
	}

	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}
