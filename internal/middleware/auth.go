package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
)

// Auth returns a middleware that requires an operator for requests that
// change the inventory. Reads, CORS preflights and websocket upgrades pass
// through so the stock stays viewable.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresOperator(r) {
				next.ServeHTTP(w, r)
				return
			}

			op, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeAuthError(w, err)
				return
			}

			logger.Debug("operator authenticated",
				zap.String("operator", op.Name),
				zap.String("auth_method", string(op.Method)),
				zap.String("path", r.URL.Path),
			)

			if info := infoFrom(r); info != nil {
				info.operator = op
			}
			next.ServeHTTP(w, r.WithContext(auth.WithOperator(r.Context(), op)))
		})
	}
}

// requiresOperator reports whether r mutates the inventory.
func requiresOperator(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// writeAuthError writes a 401 with a WWW-Authenticate challenge matching err.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="gildedrose"`)
	case errors.Is(err, auth.ErrInvalidAPIKey):
		w.Header().Set("WWW-Authenticate", "API-Key")
	default:
		w.Header().Set("WWW-Authenticate", `Basic realm="gildedrose", API-Key`)
	}

	writeError(w, http.StatusUnauthorized, err.Error(), "")
}
