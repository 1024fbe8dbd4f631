package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"veriscan/internal/observability/metrics"
	obsmw "veriscan/internal/observability/middleware"
	"veriscan/internal/service"
)

type sessionKey struct{}

func contextWithSession(ctx context.Context, s *service.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*service.Session, bool) {
	v, ok := ctx.Value(sessionKey{}).(*service.Session)
	return v, ok
}

// RequireSession validates the bearer token on every protected route and
// attaches the decoded identity to the request context.
func RequireSession(tokens service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := "success"
			defer func() {
				metrics.SessionChecksTotal.WithLabelValues(result).Inc()
			}()
			reqID := obsmw.RequestIDFromContext(r.Context())

			raw := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				result = "failure"
				slog.Warn("auth missing bearer", "path", r.URL.Path, "request_id", reqID)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			tokStr := strings.TrimSpace(raw[len("Bearer "):])

			sess, err := tokens.Verify(tokStr)
			if err != nil {
				result = "failure"
				slog.Warn("auth invalid token", "error", err, "path", r.URL.Path, "request_id", reqID)
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithSession(r.Context(), sess)))
		})
	}
}
