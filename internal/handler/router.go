package handler

import (
	"net/http"
	"time"

	"github.com/Stewz00/academic-auth/internal/middleware"
	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/Stewz00/academic-auth/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const Version = "1.0.0"

type RouterConfig struct {
	CORSOrigin string
	Logger     *zap.Logger
}

var routeMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// NewRouter wires the HTTP API around authService.
func NewRouter(authService *service.AuthService, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	authHandler := NewAuthHandler(authService)
	started := time.Now()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.RateLimiter())

	r.NotFound(notFound)
	r.MethodNotAllowed(MethodNotAllowed())

	r.Get("/", root)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(started).Seconds(),
		}, http.StatusOK)
	})

	authenticated := middleware.Authenticate(authService)

	r.Route("/api/auth", func(r chi.Router) {
		route(r, "/login", http.MethodPost,
			middleware.LoginRateLimiter()(http.HandlerFunc(authHandler.Login)))
		route(r, "/logout", http.MethodPost, http.HandlerFunc(authHandler.Logout))
		route(r, "/remember-password", http.MethodPost,
			middleware.PasswordReminderRateLimiter()(http.HandlerFunc(authHandler.RememberPassword)))
		route(r, "/status", http.MethodGet, http.HandlerFunc(authHandler.Status))
		route(r, "/verify", http.MethodGet, authenticated(http.HandlerFunc(authHandler.Verify)))
		route(r, "/users", http.MethodGet,
			authenticated(middleware.RequireRole(model.RoleAdmin)(http.HandlerFunc(authHandler.ListUsers))))
	})

	return r
}

// route mounts h for method on path and answers 405 for the other methods.
func route(r chi.Router, path, method string, h http.Handler) {
	r.Method(method, path, h)
	for _, m := range routeMethods {
		if m != method {
			r.Method(m, path, MethodNotAllowed(method))
		}
	}
}

func root(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]any{
		"message":     "Academic Login API - University System",
		"version":     Version,
		"description": "Demonstration authentication API for software testing studies. Not for production use.",
		"endpoints": map[string]string{
			"auth":   "/api/auth",
			"health": "/health",
		},
	}, http.StatusOK)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]any{
		"success": false,
		"message": "Endpoint not found",
		"code":    "ENDPOINT_NOT_FOUND",
		"availableEndpoints": map[string]any{
			"root":   "GET /",
			"health": "GET /health",
			"auth": map[string]string{
				"login":            "POST /api/auth/login",
				"logout":           "POST /api/auth/logout",
				"rememberPassword": "POST /api/auth/remember-password",
				"status":           "GET /api/auth/status",
				"verify":           "GET /api/auth/verify",
				"users":            "GET /api/auth/users",
			},
		},
	}, http.StatusNotFound)
}
