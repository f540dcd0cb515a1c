package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"comedyuo/showsync/internal/auth"
	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/models/dtos/responses"
)

// AdminAuthMiddleware requires a valid admin bearer token. An empty secret
// disables the check.
func AdminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, constants.MsgUnauthorized)
				return
			}

			claims, err := auth.ParseAdminToken([]byte(secret), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logging.Warn("Rejected bearer token", "error", err, "request_id", GetRequestID(r.Context()))
				writeError(w, http.StatusUnauthorized, constants.MsgUnauthorized)
				return
			}
			if !claims.IsAdmin() {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetAdminClaims(r.Context(), claims)))
		})
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(responses.APIResponse[any]{Success: false, Error: message})
}
