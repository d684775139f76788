package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware validates bearer JWTs and stores the caller identity in the
// request context. Authorization decisions belong to the identity provider.
type Middleware struct {
	Secret []byte
	Policy Policy
	// Anonymous, when set, is used for requests without a token. Invalid
	// tokens are still rejected.
	Anonymous *Identity
	Logger    *zap.Logger
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy, Logger: zap.NewNop()}
}

// Wrap applies authentication to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		if token == "" && m.Anonymous != nil {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *m.Anonymous)))
			return
		}
		claims, err := ParseJWT(token, m.Secret)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
	})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
