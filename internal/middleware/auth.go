package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/service"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func Authenticate(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "TOKEN_MISSING", "Access token not provided")
				return
			}

			claims, err := authService.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					writeJSONError(w, http.StatusUnauthorized, service.CodeInvalidToken, "Invalid or expired token")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, service.CodeInternal, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(service.ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only authenticated users holding one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := service.ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "User not authenticated")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeJSONError(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Access denied for this account type")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Success: false, Message: message, Code: code})
}
