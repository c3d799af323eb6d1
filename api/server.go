package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/reel-marketplace-backend/config"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rs/zerolog/log"
)

// objectUploader stores uploaded files and returns their public URL
type objectUploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error)
}

// RouterOption configures the router built by NewServer
type RouterOption func(*router)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(service *lifecycle.Service, c map[string]string, opts ...RouterOption) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	if config.GetString(c, "SUPABASE_JWT_SECRET", "") == "" {
		return Server{}, fmt.Errorf("SUPABASE_JWT_SECRET is required to verify access tokens")
	}

	startupTime := time.Now()
	opts = append([]RouterOption{withConfig(c), withStartupTime(startupTime)}, opts...)
	router := newRouter(service, opts...)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		WriteTimeout: config.GetDuration(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:  config.GetDuration(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	objectStore objectUploader
}

func withConfig(c map[string]string) RouterOption {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) RouterOption {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

// WithObjectStore enables the upload endpoints
func WithObjectStore(store objectUploader) RouterOption {
	return func(r *router) {
		r.objectStore = store
	}
}

func newRouter(service *lifecycle.Service, opts ...RouterOption) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS", nil)
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))

	if config.GetString(router.config, "LOG_FORMAT", "json") == "console" {
		chiRouter.Use(ColoredHTTPLoggingMiddleware)
	} else {
		chiRouter.Use(requestLogger(log.With().Str("component", "http").Logger()))
	}

	handlers := initializeHandlers(service, router)
	authMiddleware := newAuthMiddleware(
		config.GetString(router.config, "SUPABASE_JWT_SECRET", ""),
		config.GetString(router.config, "JWT_AUDIENCE", ""),
		service,
	)

	setupPublicRoutes(chiRouter, handlers)
	setupFrontendRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
