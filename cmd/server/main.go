package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adipras/ngobrol/internal/chat"
	"github.com/adipras/ngobrol/internal/config"
	httpHandler "github.com/adipras/ngobrol/internal/delivery/http"
	"github.com/adipras/ngobrol/internal/delivery/ws"
	"github.com/adipras/ngobrol/internal/middleware"
	"github.com/adipras/ngobrol/internal/storage"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	// Configuring Logging
	if cfg.LogLevel == "silent" || cfg.LogLevel == "off" {
		log.SetOutput(io.Discard)
	}

	// Initialize dependencies
	store, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Upload dir error: %v", err)
	}
	router := chat.NewRouter(store, cfg.MaxUploadSize)
	hub := ws.NewHub(router, cfg.MaxMessageSize)
	go hub.Run()

	handler := httpHandler.NewHandler(hub, cfg)

	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAPI, 20)
	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, 10)

	// Setup routes
	mux := http.NewServeMux()

	// Serve static client assets when present
	fs := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Uploaded files are read back by name over a plain static path
	uploads := http.FileServer(http.Dir(store.Dir()))
	mux.Handle("/uploads/", middleware.RateLimitMiddleware(apiLimiter)(http.StripPrefix("/uploads/", uploads)))

	// WebSocket route with rate limiting
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))

	mux.HandleFunc("/healthz", handler.HandleHealth)

	// Apply security headers middleware to all requests
	securedHandler := middleware.SecurityHeaders(mux)

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      securedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("ngobrol running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
