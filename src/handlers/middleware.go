package handlers

import (
	"net/http"
	"strings"

	"github.com/iconzrus/marketplace-helper/backend/src/security"
	"github.com/iconzrus/marketplace-helper/backend/src/utils"
)

// Paths reachable without a token. The status page and health probe must
// work even when the operator is logged out.
var authExemptPaths = map[string]bool{
	"/api/auth/login": true,
	"/api/health":     true,
	"/api/hello":      true,
	"/api/wb-status":  true,
}

// RequireAuth guards every /api route behind the bearer token. The token may
// also arrive as a ?token= query parameter, which the EventSource API needs
// because it cannot set headers.
func RequireAuth(authService *security.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authExemptPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if _, err := authService.ValidateToken(token); err != nil {
			utils.SendJSONError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
