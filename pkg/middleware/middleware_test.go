package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/data/entity"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	sessions map[uuid.UUID]*entity.User
	kinds    map[uuid.UUID]entity.SessionKind
	jwts     map[string]*entity.User
	err      error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		sessions: map[uuid.UUID]*entity.User{},
		kinds:    map[uuid.UUID]entity.SessionKind{},
		jwts:     map[string]*entity.User{},
	}
}

func (f *fakeAuth) Authenticate(_ context.Context, token uuid.UUID, kind entity.SessionKind) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.kinds[token] != kind {
		return nil, nil
	}
	return f.sessions[token], nil
}

func (f *fakeAuth) AuthenticateJWT(_ context.Context, token string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.jwts[token], nil
}

func (f *fakeAuth) addSession(user *entity.User, kind entity.SessionKind) uuid.UUID {
	token := uuid.New()
	f.sessions[token] = user
	f.kinds[token] = kind
	return token
}

func testUser(role entity.UserRole) *entity.User {
	return &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "buyer", Role: role}
}

// whoami echoes the authenticated username, or "anonymous"
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	name, ok := utils.GetUsernameFromContext(r.Context())
	if !ok {
		name = "anonymous"
	}
	_, _ = w.Write([]byte(name))
})

func TestWebSession(t *testing.T) {
	auth := newFakeAuth()
	user := testUser(entity.RoleCustomer)
	webToken := auth.addSession(user, entity.SessionWeb)
	apiToken := auth.addSession(user, entity.SessionAPI)
	handler := WebSession(auth, "sessionid", zap.NewNop())(whoami)

	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"no cookie", "", "anonymous"},
		{"garbage cookie", "not-a-uuid", "anonymous"},
		{"api token is not a web session", apiToken.String(), "anonymous"},
		{"valid session", webToken.String(), "buyer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sessionid", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	auth.err = errors.New("db down")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: webToken.String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireLoginRedirects(t *testing.T) {
	handler := RequireLogin("/accounts/login/")(whoami)

	req := httptest.NewRequest(http.MethodGet, "/accounts/profile/?tab=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/accounts/login/?next=%2Faccounts%2Fprofile%2F%3Ftab%3D1", rec.Header().Get("Location"))
}

func TestAPIAuth(t *testing.T) {
	auth := newFakeAuth()
	user := testUser(entity.RoleCustomer)
	apiToken := auth.addSession(user, entity.SessionAPI)
	auth.jwts["good.jwt"] = user
	handler := APIAuth(auth, zap.NewNop())(whoami)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"bearer", "Bearer good.jwt", http.StatusOK, "buyer"},
		{"token", "Token " + apiToken.String(), http.StatusOK, "buyer"},
		{"bad jwt", "Bearer bad.jwt", http.StatusUnauthorized, ""},
		{"malformed token", "Token nope", http.StatusUnauthorized, ""},
		{"unknown scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"missing credential", "Bearer", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestReadOnlyOrAuthenticated(t *testing.T) {
	handler := ReadOnlyOrAuthenticated(whoami)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := testUser(entity.RoleCustomer)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withUser(req, user, "t")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin(t *testing.T) {
	handler := Admin(zap.NewNop())(whoami)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil), testUser(entity.RoleCustomer), "t"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil), testUser(entity.RoleAdmin), "t"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(utils.RateLimitConfig{RPS: 1, Burst: 2}, zap.NewNop())
	handler := rl.Handler(whoami)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/accounts/login/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/accounts/login/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 2, rl.Cleanup(-time.Second))
}

func TestRecover(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<h2>Server error</h2>"))
	})

	t.Run("api path answers json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NotPanics(t, func() {
			Recover(zap.NewNop(), page)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":false`)
	})

	t.Run("page path renders html", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Recover(zap.NewNop(), page)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shoes/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Server error")
	})

	t.Run("no page handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Recover(zap.NewNop(), nil)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Contains(t, rec.Body.String(), `"status":false`)
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		abort := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			Recover(zap.NewNop(), nil)(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestCORS(t *testing.T) {
	handler := CORS("https://shop.example")(whoami)

	req := httptest.NewRequest(http.MethodOptions, "/api/products/", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/products/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/products/{id}", whoami)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	var counter dto.Metric
	require.NoError(t, m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/products/{id}", "200").Write(&counter))
	assert.Equal(t, float64(2), counter.GetCounter().GetValue())

	var inflight dto.Metric
	require.NoError(t, m.HTTPInFlight.Write(&inflight))
	assert.Equal(t, float64(0), inflight.GetGauge().GetValue())
}

func TestLoggerRecordsStatus(t *testing.T) {
	handler := Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(strings.Repeat("x", 3)))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "xxx", rec.Body.String())
}
