package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/data/entity"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticator resolves credentials to an active user. A nil user with a
// nil error means the credential is unknown, expired or revoked.
type Authenticator interface {
	Authenticate(ctx context.Context, token uuid.UUID, kind entity.SessionKind) (*entity.User, error)
	AuthenticateJWT(ctx context.Context, token string) (*entity.User, error)
}

func withUser(r *http.Request, user *entity.User, token string) *http.Request {
	ctx := utils.SetUserContext(r.Context(), user.ID, user.Username, string(user.Role))
	ctx = utils.SetTokenContext(ctx, token)
	return r.WithContext(ctx)
}

// WebSession resolves the session cookie. Requests without a usable cookie
// continue anonymously.
func WebSession(auth Authenticator, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := uuid.Parse(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token, entity.SessionWeb)
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, withUser(r, user, token.String()))
		})
	}
}

// RequireLogin sends anonymous visitors to the login page, remembering
// where they were going.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIAuth accepts "Bearer <jwt>" or "Token <key>". A request without an
// Authorization header continues anonymously; a bad credential is refused.
func APIAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, credential, ok := strings.Cut(header, " ")
			credential = strings.TrimSpace(credential)
			if !ok || credential == "" {
				utils.ResponseUnauthorized(w, "Invalid authorization header. Use: Bearer <jwt> or Token <key>")
				return
			}

			var (
				user *entity.User
				err  error
			)
			switch strings.ToLower(scheme) {
			case "bearer":
				user, err = auth.AuthenticateJWT(r.Context(), credential)
			case "token":
				token, perr := uuid.Parse(credential)
				if perr != nil {
					utils.ResponseUnauthorized(w, "Invalid token")
					return
				}
				user, err = auth.Authenticate(r.Context(), token, entity.SessionAPI)
			default:
				utils.ResponseUnauthorized(w, "Unsupported authorization scheme")
				return
			}

			if err != nil {
				logger.Error("Failed to validate credentials", zap.String("scheme", scheme), zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				logger.Warn("Invalid or expired credentials", zap.String("scheme", scheme), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired credentials")
				return
			}

			next.ServeHTTP(w, withUser(r, user, credential))
		})
	}
}

// RequireAuth refuses anonymous API requests
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.ResponseUnauthorized(w, "Authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReadOnlyOrAuthenticated lets safe methods through and requires a user for the rest
func ReadOnlyOrAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			RequireAuth(next).ServeHTTP(w, r)
		}
	})
}

// Admin - requires the authenticated user to have the admin role
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != string(entity.RoleAdmin) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
