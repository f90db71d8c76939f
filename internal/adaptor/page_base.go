package adaptor

import (
	"errors"
	"net/http"

	"storefront/internal/usecase"
	"storefront/internal/web"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pageBase is shared by the HTML handlers: it builds the common view and
// renders error pages.
type pageBase struct {
	categories usecase.CategoryService
	renderer   *web.Renderer
	log        *zap.Logger
}

func newPageBase(categories usecase.CategoryService, renderer *web.Renderer, log *zap.Logger) *pageBase {
	return &pageBase{
		categories: categories,
		renderer:   renderer,
		log:        log.With(zap.String("handler", "page")),
	}
}

func currentUser(r *http.Request) *web.CurrentUser {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	username, _ := utils.GetUsernameFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())
	return &web.CurrentUser{ID: userID.String(), Username: username, IsAdmin: role == "admin"}
}

// view builds the data shared by every page. A failing navigation query
// only costs the sidebar.
func (p *pageBase) view(r *http.Request, title string) *web.View {
	v := &web.View{
		Title:   title,
		User:    currentUser(r),
		Keyword: r.URL.Query().Get("keyword"),
		Errors:  map[string]string{},
		Form:    map[string]string{},
	}

	subcategories, err := p.categories.ListSubcategories(r.Context(), nil)
	if err != nil {
		p.log.Error("Failed to load navigation", zap.Error(err))
	} else {
		v.Nav = web.GroupSubcategories(subcategories)
	}
	return v
}

func (p *pageBase) render(w http.ResponseWriter, status int, name string, v *web.View) {
	p.renderer.Render(w, status, name, v)
}

func (p *pageBase) notFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusNotFound, "not_found", p.view(r, "Not found"))
}

// handleServiceError renders the error page matching err. Validation
// errors are handled by the form handlers before reaching here.
func (p *pageBase) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		p.log.Warn(operation+" failed - not found", zap.Error(err))
		p.notFound(w, r)

	case errors.Is(err, utils.ErrForbidden):
		p.log.Warn(operation+" failed - forbidden", zap.Error(err))
		v := p.view(r, "Forbidden")
		v.Data = "You are not allowed to do that."
		p.render(w, http.StatusForbidden, "error", v)

	case errors.Is(err, utils.ErrIntegrity), errors.Is(err, utils.ErrConflict):
		p.log.Warn(operation+" failed - conflict", zap.Error(err))
		v := p.view(r, "Conflict")
		v.Data = "The object is still in use and cannot be changed."
		p.render(w, http.StatusConflict, "error", v)

	default:
		p.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		p.render(w, http.StatusInternalServerError, "error", p.view(r, "Error"))
	}
}

// uuidParam parses a chi URL parameter, rendering the not found page on failure
func (p *pageBase) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		p.notFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

// formValues copies the submitted form so it can be shown again
func formValues(r *http.Request) map[string]string {
	values := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		values[key] = r.PostForm.Get(key)
	}
	return values
}

func checkbox(r *http.Request, name string) bool {
	return utils.ParseBool(r.PostFormValue(name))
}

func checkedValue(b bool) string {
	if b {
		return "on"
	}
	return ""
}
