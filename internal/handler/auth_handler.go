package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Stewz00/academic-auth/internal/middleware"
	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/service"
	"github.com/Stewz00/academic-auth/internal/token"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RememberPasswordRequest struct {
	Email string `json:"email"`
}

type Response struct {
	Success        bool              `json:"success"`
	Message        string            `json:"message,omitempty"`
	Code           string            `json:"code,omitempty"`
	Token          string            `json:"token,omitempty"`
	User           *model.PublicUser `json:"user,omitempty"`
	AttemptsLeft   *int              `json:"attemptsLeft,omitempty"`
	BlockedUntil   *time.Time        `json:"blockedUntil,omitempty"`
	AllowedMethods []string          `json:"allowedMethods,omitempty"`
}

type StatusResponse struct {
	Success bool `json:"success"`
	model.AccountStatus
}

type UsersResponse struct {
	Success bool                `json:"success"`
	Users   []model.UserSummary `json:"users"`
}

type ClaimsResponse struct {
	Success bool          `json:"success"`
	User    *token.Claims `json:"user"`
}

// Login handles user authentication and returns a JWT token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", "INVALID_REQUEST", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		sendJSONError(w, "Email and password are required", "MISSING_CREDENTIALS", http.StatusBadRequest)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var loginErr *service.LoginError
		if !errors.As(err, &loginErr) {
			sendInternalError(w)
			return
		}

		resp := Response{
			Code:         service.Code(err),
			AttemptsLeft: loginErr.AttemptsLeft,
			BlockedUntil: loginErr.BlockedUntil,
		}
		code := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrAccountBlocked):
			code = http.StatusLocked
			resp.Message = "Account blocked after too many failed login attempts"
			if loginErr.BlockedUntil != nil {
				resp.Message = fmt.Sprintf("Account blocked until %s", loginErr.BlockedUntil.Format(time.RFC3339))
			}
		case loginErr.AttemptsLeft != nil:
			resp.Message = fmt.Sprintf("Invalid email or password. Attempts left: %d", *loginErr.AttemptsLeft)
		default:
			resp.Message = "Invalid email or password"
		}
		sendJSON(w, resp, code)
		return
	}

	sendJSON(w, Response{
		Success: true,
		Message: "Login successful",
		Token:   result.Token,
		User:    &result.User,
	}, http.StatusOK)
}

// Logout handles user logout by revoking the JWT token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString := middleware.BearerToken(r)
	if tokenString == "" {
		sendJSONError(w, "Access token not provided", "TOKEN_MISSING", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), tokenString); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			sendJSONError(w, "Invalid or already expired token", service.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		sendInternalError(w)
		return
	}

	sendJSON(w, Response{Success: true, Message: "Logged out successfully"}, http.StatusOK)
}

// RememberPassword acknowledges a password reminder request
func (h *AuthHandler) RememberPassword(w http.ResponseWriter, r *http.Request) {
	var req RememberPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", "INVALID_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		sendJSONError(w, "Email is required", "MISSING_EMAIL", http.StatusBadRequest)
		return
	}

	if err := h.authService.RememberPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailNotFound) {
			sendJSONError(w, "Email not found", service.CodeEmailNotFound, http.StatusBadRequest)
			return
		}
		sendInternalError(w)
		return
	}

	sendJSON(w, Response{Success: true, Message: "Password recovery email sent"}, http.StatusOK)
}

// Status reports the lockout state of the account given by ?email=
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		sendJSONError(w, "Email is required", "MISSING_EMAIL", http.StatusBadRequest)
		return
	}

	status, err := h.authService.GetAccountStatus(r.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			sendJSONError(w, "User not found", service.CodeUserNotFound, http.StatusBadRequest)
			return
		}
		sendInternalError(w)
		return
	}

	sendJSON(w, StatusResponse{Success: true, AccountStatus: *status}, http.StatusOK)
}

// Verify returns the claims of the token that authenticated the request
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := service.ClaimsFromContext(r.Context())
	if !ok {
		sendJSONError(w, "User not authenticated", "NOT_AUTHENTICATED", http.StatusUnauthorized)
		return
	}
	sendJSON(w, ClaimsResponse{Success: true, User: claims}, http.StatusOK)
}

// ListUsers returns every account without password hashes
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.GetAllUsers(r.Context())
	if err != nil {
		sendInternalError(w)
		return
	}
	sendJSON(w, UsersResponse{Success: true, Users: users}, http.StatusOK)
}

// MethodNotAllowed answers 405 listing the methods the endpoint accepts
func MethodNotAllowed(allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			w.Header().Add("Allow", m)
		}
		sendJSON(w, Response{
			Message:        fmt.Sprintf("Method %s not allowed for this endpoint", r.Method),
			Code:           "METHOD_NOT_ALLOWED",
			AllowedMethods: allowed,
		}, http.StatusMethodNotAllowed)
	}
}

func sendInternalError(w http.ResponseWriter) {
	sendJSONError(w, "Internal server error", service.CodeInternal, http.StatusInternalServerError)
}

// Helper function to send JSON error responses
func sendJSONError(w http.ResponseWriter, message, code string, status int) {
	sendJSON(w, Response{Message: message, Code: code}, status)
}

func sendJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
