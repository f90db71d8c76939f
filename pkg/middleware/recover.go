package middleware

import (
	"net/http"
	"strings"

	"storefront/pkg/utils"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500. API paths get the JSON envelope;
// everything else is handed to pages, which renders the HTML error page.
// A nil pages handler means JSON everywhere.
func Recover(logger *zap.Logger, pages http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := []zap.Field{
					zap.Any("error", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				}
				if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
					fields = append(fields, zap.String("user_id", userID.String()))
				}
				logger.Error("Panic recovered", fields...)

				if pages != nil && !isAPIPath(r.URL.Path) {
					pages.ServeHTTP(w, r)
					return
				}
				utils.ResponseInternalError(w, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
