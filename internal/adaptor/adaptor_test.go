package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/internal/usecase"
	"storefront/internal/web"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeComments struct {
	usecase.CommentService
	submit func(ctx context.Context, productID uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error)
}

func (f *fakeComments) Submit(ctx context.Context, productID uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error) {
	return f.submit(ctx, productID, actor, req)
}

type fakeCategories struct {
	usecase.CategoryService
}

func (fakeCategories) ListSubcategories(context.Context, *uuid.UUID) ([]*entity.Category, error) {
	return nil, nil
}

type fakeAuthService struct {
	usecase.AuthService
	activate func(sign string) (response.ActivationOutcome, error)
	login    func(req *request.LoginRequest) (*response.SessionResponse, error)
}

func (f *fakeAuthService) Activate(_ context.Context, sign string) (response.ActivationOutcome, error) {
	return f.activate(sign)
}

func (f *fakeAuthService) Login(_ context.Context, req *request.LoginRequest, _ entity.SessionKind, _ usecase.SessionMeta) (*response.SessionResponse, error) {
	return f.login(req)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func newTestPageBase(t *testing.T) *pageBase {
	t.Helper()
	renderer, err := web.NewRenderer(zap.NewNop())
	require.NoError(t, err)
	return newPageBase(fakeCategories{}, renderer, zap.NewNop())
}

func TestHandleServiceError(t *testing.T) {
	h := apiBase{log: zap.NewNop()}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", utils.NewValidationError("content", "required"), http.StatusBadRequest},
		{"not found", utils.NotFoundf("product %s", "x"), http.StatusNotFound},
		{"unauthorized", fmt.Errorf("login: %w", utils.ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("edit: %w", utils.ErrForbidden), http.StatusForbidden},
		{"integrity", fmt.Errorf("delete: %w", utils.ErrIntegrity), http.StatusConflict},
		{"conflict", fmt.Errorf("insert: %w", utils.ErrConflict), http.StatusConflict},
		{"bad signature", fmt.Errorf("activate: %w", utils.ErrBadSignature), http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.handleServiceError(rec, tt.err, "test")

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Status)
		})
	}

	t.Run("validation carries fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handleServiceError(rec, utils.NewValidationError("content", "This field is required"), "test")

		resp := decodeResponse(t, rec)
		fields, ok := resp.Errors.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "This field is required", fields["content"])
	})

	t.Run("internal error hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.handleServiceError(rec, errors.New("password=secret"), "test")
		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/fallback/"},
		{"/accounts/profile/", "/accounts/profile/"},
		{"/shoes/?page=2", "/shoes/?page=2"},
		{"https://evil.example/", "/fallback/"},
		{"//evil.example/", "/fallback/"},
		{"/\\evil.example", "/fallback/"},
		{"relative/path", "/fallback/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirect(tt.next, "/fallback/"), "next=%q", tt.next)
	}
}

func TestProductHandler_CreateComment(t *testing.T) {
	productID := uuid.New()

	newRouter := func(comments *fakeComments, username string) http.Handler {
		h := NewProductHandler(nil, comments, zap.NewNop())
		r := chi.NewRouter()
		r.Post("/products/{id}/comments/", func(w http.ResponseWriter, r *http.Request) {
			if username != "" {
				r = r.WithContext(utils.SetUserContext(r.Context(), uuid.New(), username, string(entity.RoleCustomer)))
			}
			h.CreateComment(w, r)
		})
		return r
	}

	t.Run("created with the product from the URL", func(t *testing.T) {
		var gotProduct uuid.UUID
		var gotActor string
		comments := &fakeComments{submit: func(_ context.Context, id uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error) {
			gotProduct, gotActor = id, actor
			return &entity.Comment{
				BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
				ProductID:  id,
				Author:     actor,
				Content:    req.Content,
				IsActive:   true,
			}, nil
		}}

		body := `{"content":"Nice!","product_id":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/comments/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newRouter(comments, "alice").ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, productID, gotProduct)
		assert.Equal(t, "alice", gotActor)

		resp := decodeResponse(t, rec)
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Nice!", data["content"])
		assert.Equal(t, productID.String(), data["product_id"])
	})

	t.Run("validation error", func(t *testing.T) {
		comments := &fakeComments{submit: func(context.Context, uuid.UUID, string, *request.CommentRequest) (*entity.Comment, error) {
			return nil, utils.NewValidationError("content", "This field is required")
		}}

		req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/comments/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		newRouter(comments, "alice").ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"content"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		comments := &fakeComments{submit: func(context.Context, uuid.UUID, string, *request.CommentRequest) (*entity.Comment, error) {
			t.Fatal("service must not be called")
			return nil, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/comments/", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		newRouter(comments, "alice").ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		comments := &fakeComments{submit: func(_ context.Context, id uuid.UUID, _ string, _ *request.CommentRequest) (*entity.Comment, error) {
			return nil, utils.NotFoundf("product %s", id)
		}}

		req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/comments/", strings.NewReader(`{"content":"x"}`))
		rec := httptest.NewRecorder()
		newRouter(comments, "alice").ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed product id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/products/not-a-uuid/comments/", strings.NewReader(`{"content":"x"}`))
		rec := httptest.NewRecorder()
		newRouter(&fakeComments{}, "alice").ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAccountHandler_Activate(t *testing.T) {
	base := newTestPageBase(t)

	tests := []struct {
		name     string
		outcome  response.ActivationOutcome
		err      error
		status   int
		contains string
	}{
		{"bad signature", "", fmt.Errorf("unsign: %w", utils.ErrBadSignature), http.StatusOK, "Invalid activation link"},
		{"activated", response.ActivationDone, nil, http.StatusOK, "Account activated"},
		{"already activated", response.ActivationAlreadyDone, nil, http.StatusOK, "Already activated"},
		{"unknown user", "", utils.NotFoundf("user %s", "ghost"), http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSign string
			h := &AccountHandler{pageBase: base, auth: &fakeAuthService{
				activate: func(sign string) (response.ActivationOutcome, error) {
					gotSign = sign
					return tt.outcome, tt.err
				},
			}}

			r := chi.NewRouter()
			r.Get("/accounts/register/activate/{sign}/", h.Activate)

			req := httptest.NewRequest(http.MethodGet, "/accounts/register/activate/abc:def/", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "abc:def", gotSign)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestAccountHandler_Login(t *testing.T) {
	base := newTestPageBase(t)
	token := uuid.NewString()

	h := &AccountHandler{pageBase: base, cookieName: "sessionid", auth: &fakeAuthService{
		login: func(req *request.LoginRequest) (*response.SessionResponse, error) {
			if req.Password != "correct-horse" {
				return nil, utils.NewValidationError("non_field_errors", "Invalid username or password")
			}
			return &response.SessionResponse{Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}}

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/accounts/login/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		return rec
	}

	t.Run("redirects to next and sets the cookie", func(t *testing.T) {
		rec := post(url.Values{"username": {"alice"}, "password": {"correct-horse"}, "next": {"/accounts/profile/add/"}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/accounts/profile/add/", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sessionid", cookies[0].Name)
		assert.Equal(t, token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("ignores an external next", func(t *testing.T) {
		rec := post(url.Values{"username": {"alice"}, "password": {"correct-horse"}, "next": {"//evil.example/"}})

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, profilePath, rec.Header().Get("Location"))
	})

	t.Run("wrong password re-renders the form", func(t *testing.T) {
		rec := post(url.Values{"username": {"alice"}, "password": {"nope"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password")
		assert.Contains(t, rec.Body.String(), `value="alice"`)
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestPageHandler_PostComment(t *testing.T) {
	base := newTestPageBase(t)
	categoryID, productID := uuid.New(), uuid.New()
	path := "/" + categoryID.String() + "/" + productID.String() + "/"

	var got *request.CommentRequest
	h := &PageHandler{pageBase: base, comments: &fakeComments{
		submit: func(_ context.Context, id uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error) {
			got = req
			assert.Equal(t, productID, id)
			assert.Empty(t, actor)
			return &entity.Comment{ProductID: id, Author: req.Author, Content: req.Content, IsActive: true}, nil
		},
	}}

	r := chi.NewRouter()
	r.Post("/{categoryID}/{productID}/", h.PostComment)

	form := url.Values{"author": {"Guest"}, "content": {"Hello"}, "captcha_id": {"c1"}, "captcha": {"AB12C"}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, path, rec.Header().Get("Location"))
	require.NotNil(t, got)
	assert.Equal(t, "Guest", got.Author)
	assert.Equal(t, "c1", got.CaptchaID)
	assert.Equal(t, "AB12C", got.CaptchaAnswer)
}
