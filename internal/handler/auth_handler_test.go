package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Stewz00/academic-auth/internal/service"
	"github.com/Stewz00/academic-auth/internal/test"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"
)

func setupTestRouter(t *testing.T) (http.Handler, *clockwork.FakeClock) {
	t.Helper()
	clock := test.NewClock()
	authService := service.NewAuthService(
		test.NewUserRepository(t),
		test.NewTokenRegistry(clock),
		service.WithClock(clock),
		service.WithLogger(zaptest.NewLogger(t)),
	)
	return NewRouter(authService, RouterConfig{
		CORSOrigin: "http://localhost:3002",
		Logger:     zaptest.NewLogger(t),
	}), clock
}

func do(t *testing.T, router http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, response
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()
	w, response := do(t, router, "POST", "/api/auth/login", LoginRequest{Email: email, Password: password}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %v", w.Code, response)
	}
	return response["token"].(string)
}

func TestAuthHandler_Login(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name             string
		requestBody      any
		wantStatusCode   int
		wantCode         string
		wantAttemptsLeft float64
	}{
		{
			name:           "valid login",
			requestBody:    LoginRequest{Email: test.StudentEmail, Password: test.StudentPassword},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing password",
			requestBody:    LoginRequest{Email: test.StudentEmail},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "MISSING_CREDENTIALS",
		},
		{
			name:           "invalid body",
			requestBody:    "not an object",
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "INVALID_REQUEST",
		},
		{
			name:             "wrong password",
			requestBody:      LoginRequest{Email: "aluno2@universidade.edu.br", Password: "wrong"},
			wantStatusCode:   http.StatusBadRequest,
			wantCode:         service.CodeInvalidCredentials,
			wantAttemptsLeft: 2,
		},
		{
			name:           "unknown email",
			requestBody:    LoginRequest{Email: "ghost@universidade.edu.br", Password: "wrong"},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       service.CodeInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := do(t, router, "POST", "/api/auth/login", tt.requestBody, "")

			if w.Code != tt.wantStatusCode {
				t.Errorf("got status %v, want %v", w.Code, tt.wantStatusCode)
			}

			if tt.wantCode == "" {
				if response["success"] != true {
					t.Errorf("expected success, got %v", response)
				}
				if token, _ := response["token"].(string); token == "" {
					t.Error("expected token in response, got empty string")
				}
				user, ok := response["user"].(map[string]any)
				if !ok {
					t.Fatalf("expected user object, got %v", response["user"])
				}
				if _, leaked := user["password"]; leaked {
					t.Error("password hash must not be returned")
				}
				if user["type"] != "aluno" || user["course"] != "Engenharia de Software" {
					t.Errorf("unexpected user profile: %v", user)
				}
				return
			}

			if response["success"] != false {
				t.Errorf("expected success=false, got %v", response["success"])
			}
			if response["code"] != tt.wantCode {
				t.Errorf("got code %v, want %v", response["code"], tt.wantCode)
			}
			left, hasLeft := response["attemptsLeft"]
			if tt.wantAttemptsLeft == 0 && hasLeft {
				t.Errorf("attemptsLeft must not be revealed, got %v", left)
			}
			if tt.wantAttemptsLeft != 0 && left != tt.wantAttemptsLeft {
				t.Errorf("got attemptsLeft %v, want %v", left, tt.wantAttemptsLeft)
			}
		})
	}
}

func TestAuthHandler_LoginLockout(t *testing.T) {
	router, clock := setupTestRouter(t)
	wrong := LoginRequest{Email: test.StudentEmail, Password: "wrong"}

	for i, want := range []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusLocked} {
		w, response := do(t, router, "POST", "/api/auth/login", wrong, "")
		if w.Code != want {
			t.Errorf("attempt %d: expected status %d, got %d", i+1, want, w.Code)
		}
		if want == http.StatusLocked {
			if response["code"] != service.CodeAccountBlocked {
				t.Errorf("got code %v, want %v", response["code"], service.CodeAccountBlocked)
			}
			if response["blockedUntil"] != test.Epoch.Add(5*time.Minute).Format(time.RFC3339) {
				t.Errorf("unexpected blockedUntil %v", response["blockedUntil"])
			}
		}
	}

	w, response := do(t, router, "GET", "/api/auth/status?email="+test.StudentEmail, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if response["isBlocked"] != true || response["attemptsLeft"] != float64(0) || response["failedAttempts"] != float64(3) {
		t.Errorf("unexpected status while blocked: %v", response)
	}

	clock.Advance(5 * time.Minute)
	_, response = do(t, router, "GET", "/api/auth/status?email="+test.StudentEmail, nil, "")
	if response["isBlocked"] != false || response["attemptsLeft"] != float64(3) || response["blockedUntil"] != nil {
		t.Errorf("unexpected status after window: %v", response)
	}

	login(t, router, test.StudentEmail, test.StudentPassword)
}

func TestAuthHandler_LogoutFlow(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := login(t, router, test.StudentEmail, test.StudentPassword)

	w, response := do(t, router, "GET", "/api/auth/verify", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	user := response["user"].(map[string]any)
	if user["email"] != test.StudentEmail || user["userId"] != float64(1) || user["type"] != "aluno" {
		t.Errorf("unexpected claims: %v", user)
	}

	w, _ = do(t, router, "POST", "/api/auth/logout", nil, token)
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	w, response = do(t, router, "POST", "/api/auth/logout", nil, token)
	if w.Code != http.StatusUnauthorized || response["code"] != service.CodeInvalidToken {
		t.Errorf("second logout: got %d %v", w.Code, response["code"])
	}

	w, _ = do(t, router, "GET", "/api/auth/verify", nil, token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("verify after logout: expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	w, response = do(t, router, "POST", "/api/auth/logout", nil, "")
	if w.Code != http.StatusUnauthorized || response["code"] != "TOKEN_MISSING" {
		t.Errorf("logout without token: got %d %v", w.Code, response["code"])
	}
}

func TestAuthHandler_RememberPassword(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name           string
		requestBody    map[string]string
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "known email",
			requestBody:    map[string]string{"email": test.StudentEmail},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown email",
			requestBody:    map[string]string{"email": "ghost@universidade.edu.br"},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       service.CodeEmailNotFound,
		},
		{
			name:           "missing email",
			requestBody:    map[string]string{},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "MISSING_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := do(t, router, "POST", "/api/auth/remember-password", tt.requestBody, "")

			if w.Code != tt.wantStatusCode {
				t.Errorf("got status %v, want %v", w.Code, tt.wantStatusCode)
			}
			if tt.wantCode != "" && response["code"] != tt.wantCode {
				t.Errorf("got code %v, want %v", response["code"], tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_Status(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name           string
		query          string
		wantStatusCode int
		wantCode       string
	}{
		{name: "known user", query: "?email=aluno2@universidade.edu.br", wantStatusCode: http.StatusOK},
		{name: "unknown user", query: "?email=aluno111@universidade.edu.br", wantStatusCode: http.StatusBadRequest, wantCode: service.CodeUserNotFound},
		{name: "missing email", query: "", wantStatusCode: http.StatusBadRequest, wantCode: "MISSING_EMAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := do(t, router, "GET", "/api/auth/status"+tt.query, nil, "")

			if w.Code != tt.wantStatusCode {
				t.Errorf("got status %v, want %v", w.Code, tt.wantStatusCode)
			}
			if tt.wantCode != "" {
				if response["code"] != tt.wantCode {
					t.Errorf("got code %v, want %v", response["code"], tt.wantCode)
				}
				return
			}
			for _, field := range []string{"email", "isBlocked", "failedAttempts", "blockedUntil", "attemptsLeft"} {
				if _, ok := response[field]; !ok {
					t.Errorf("missing field %q in %v", field, response)
				}
			}
		})
	}
}

func TestAuthHandler_ListUsers(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := do(t, router, "GET", "/api/auth/users", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	studentToken := login(t, router, test.StudentEmail, test.StudentPassword)
	w, _ = do(t, router, "GET", "/api/auth/users", nil, studentToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("student: expected status %d, got %d", http.StatusForbidden, w.Code)
	}

	adminToken := login(t, router, test.AdminEmail, test.AdminPassword)
	w, response := do(t, router, "GET", "/api/auth/users", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: expected status %d, got %d", http.StatusOK, w.Code)
	}
	users := response["users"].([]any)
	if len(users) != 4 {
		t.Fatalf("got %d users, want 4", len(users))
	}
	for _, u := range users {
		user := u.(map[string]any)
		if _, leaked := user["password"]; leaked {
			t.Errorf("password hash leaked for %v", user["email"])
		}
		if _, ok := user["failedAttempts"]; !ok {
			t.Errorf("missing counters for %v", user["email"])
		}
	}
}

func TestAuthHandler_MethodNotAllowed(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		method  string
		path    string
		allowed string
	}{
		{method: "GET", path: "/api/auth/login", allowed: "POST"},
		{method: "PUT", path: "/api/auth/login", allowed: "POST"},
		{method: "DELETE", path: "/api/auth/remember-password", allowed: "POST"},
		{method: "POST", path: "/api/auth/status?email=aluno2@universidade.edu.br", allowed: "GET"},
		{method: "PATCH", path: "/api/auth/status", allowed: "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w, response := do(t, router, tt.method, tt.path, nil, "")

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("got status %v, want %v", w.Code, http.StatusMethodNotAllowed)
			}
			if response["message"] != "Method "+tt.method+" not allowed for this endpoint" {
				t.Errorf("unexpected message %v", response["message"])
			}
			allowed, _ := response["allowedMethods"].([]any)
			if len(allowed) != 1 || allowed[0] != tt.allowed {
				t.Errorf("got allowedMethods %v, want [%s]", allowed, tt.allowed)
			}
		})
	}
}

func TestAuthHandler_RootHealthAndNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, response := do(t, router, "GET", "/", nil, "")
	if w.Code != http.StatusOK || response["version"] != Version {
		t.Errorf("root: got %d %v", w.Code, response)
	}

	w, response = do(t, router, "GET", "/health", nil, "")
	if w.Code != http.StatusOK || response["status"] != "OK" {
		t.Errorf("health: got %d %v", w.Code, response)
	}

	w, response = do(t, router, "GET", "/api/nothing", nil, "")
	if w.Code != http.StatusNotFound || response["code"] != "ENDPOINT_NOT_FOUND" {
		t.Errorf("not found: got %d %v", w.Code, response)
	}
}
