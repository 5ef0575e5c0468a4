package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/utcsync/mcp-time-server/pkg/logging"
)

// exemptPaths stay open even when keys are configured: liveness probes
// and metric scrapes must not need credentials.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Middleware enforces API key authentication on every non-exempt path.
// With no keys configured, every request passes through.
func Middleware(validator *KeyValidator, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil || !validator.HasKeys() {
				next.ServeHTTP(w, r)
				return
			}
			if _, open := exemptPaths[r.URL.Path]; open {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r)
			if !validator.Validate(key) {
				logger.Warn("rejected unauthenticated request",
					logging.String("path", r.URL.Path),
					logging.String("remote", r.RemoteAddr))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}

			if meta, ok := validator.Metadata(key); ok && meta.Name != "" {
				r = r.WithContext(ContextWithKeyName(r.Context(), meta.Name))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey pulls the presented key from the X-API-Key header or a
// bearer token
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}

	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

type contextKey string

const contextKeyName contextKey = "api_key_name"

// ContextWithKeyName tags a context with the name of the key that
// authenticated the request.
func ContextWithKeyName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKeyName, name)
}

// KeyNameFromContext returns the authenticated key name, if any
func KeyNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(contextKeyName).(string)
	return name, ok
}
