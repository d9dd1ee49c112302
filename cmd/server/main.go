package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stewz00/academic-auth/internal/config"
	"github.com/Stewz00/academic-auth/internal/handler"
	"github.com/Stewz00/academic-auth/internal/logger"
	"github.com/Stewz00/academic-auth/internal/repository"
	"github.com/Stewz00/academic-auth/internal/service"
	"github.com/Stewz00/academic-auth/internal/token"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer lg.Sync()

	// Seed the in-memory credential store
	seed := repository.DefaultSeed()
	userRepo, err := repository.NewSeededUserRepository(seed, cfg.BcryptCost)
	if err != nil {
		lg.Fatal("failed to seed users", zap.Error(err))
	}

	// Initialize token registry, service and router
	tokens := token.NewRegistry(cfg.JwtSecret, token.WithTTL(cfg.TokenTTL))
	authService := service.NewAuthService(userRepo, tokens, service.WithLogger(lg))
	router := handler.NewRouter(authService, handler.RouterConfig{
		CORSOrigin: cfg.CORSOrigin,
		Logger:     lg,
	})

	// Create server with timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		printBanner(cfg.Port, seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	lg.Info("server is shutting down", zap.String("signal", sig.String()))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Fatal("server forced to shutdown", zap.Error(err))
	}

	lg.Info("server exited properly")
}

func printBanner(port string, seed []repository.SeedUser) {
	fmt.Println("Academic Login API started")
	fmt.Printf("  URL:  http://localhost:%s\n", port)
	fmt.Printf("  Auth: http://localhost:%s/api/auth\n", port)
	fmt.Println()
	fmt.Println("Demo accounts:")
	for _, u := range seed {
		fmt.Printf("  %-10s %s / %s\n", u.Profile.Name, u.Email, u.Password)
	}
	fmt.Println()
	fmt.Println("WARNING: this API exists for software testing studies only. Do not use it in production.")
}
