package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, c map[string]string, images services.ImageStore) (Server, error) {
	if config.GetString(c, "SECRET_KEY", "") == "" {
		return Server{}, errors.New("SECRET_KEY must be set")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(database, withConfig(c), withStartupTime(startupTime), withImageStore(images))

	// Get timeout values from config with sensible defaults
	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 60)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 60)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 120)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,  // Timeout for reading the entire request
		WriteTimeout: writeTimeout, // Timeout for writing the response
		IdleTimeout:  idleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	images      services.ImageStore
	tokens      services.TokenIssuer
	renderer    services.ShoppingListRenderer
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withImageStore(images services.ImageStore) func(*router) {
	return func(r *router) {
		r.images = images
	}
}

func newRouter(database database.Database, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	if router.images == nil {
		router.images = services.NewLocalImageStore(
			config.GetString(router.config, "MEDIA_ROOT", "media"),
			config.GetString(router.config, "MEDIA_URL", "/media/"),
		)
	}
	router.tokens = services.NewTokenIssuer(
		config.GetString(router.config, "SECRET_KEY", ""),
		time.Duration(config.GetInt(router.config, "TOKEN_TTL_HOURS", 24*7))*time.Hour,
	)
	router.renderer = services.NewShoppingListRenderer(config.GetString(router.config, "PDF_FONT_PATH", ""))

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(middleware.StripSlashes)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(HTTPLoggingMiddleware(log.Logger))
	chiRouter.Use(RecordMetrics)

	// Apply CORS middleware
	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	if len(acceptedOrigins) == 0 {
		acceptedOrigins = []string{"http://localhost:3000"}
	}
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   acceptedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize all handlers
	handlers := initializeHandlers(database, router)

	// Initialize auth middleware
	authMiddleware := newAuthMiddleware(router.tokens, database.UserRepo(), database.RevokedTokenRepo())

	loginLimiter := newLoginLimiter(config.GetInt(router.config, "LOGIN_RATE_LIMIT", 10))

	mediaRoot := ""
	if _, local := router.images.(*services.LocalImageStore); local {
		mediaRoot = config.GetString(router.config, "MEDIA_ROOT", "media")
	}

	setupRoutes(chiRouter, handlers, authMiddleware, loginLimiter, mediaRoot)

	return chiRouter
}

// newLoginLimiter allows perMinute login attempts per client IP
func newLoginLimiter(perMinute int) func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "loginLimiter").Logger())

	return httprate.Limit(
		max(perMinute, 1),
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responder.WriteError(w, errs.NewApiErr(http.StatusTooManyRequests, "too many login attempts, try again later"))
		}),
	)
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
