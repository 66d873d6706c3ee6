package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	"github.com/aiworkforce/dashboard-server-go/internal/config"
	"github.com/aiworkforce/dashboard-server-go/internal/database"
	"github.com/aiworkforce/dashboard-server-go/internal/handler"
	"github.com/aiworkforce/dashboard-server-go/internal/httputil"
	"github.com/aiworkforce/dashboard-server-go/internal/jobs"
	"github.com/aiworkforce/dashboard-server-go/internal/llm"
	"github.com/aiworkforce/dashboard-server-go/internal/middleware"
	"github.com/aiworkforce/dashboard-server-go/internal/redis"
	"github.com/aiworkforce/dashboard-server-go/internal/repository"
	"github.com/aiworkforce/dashboard-server-go/internal/service"
	"github.com/aiworkforce/dashboard-server-go/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	isProduction := os.Getenv("APP_ENV") == "production" || os.Getenv("FLY_APP_NAME") != ""
	if !isProduction {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionStore, err := session.NewStore(cfg.SessionSecret, cfg.SessionMaxAge())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session store")
	}

	oauthStateRepo := repository.NewOAuthStateRepository(db.DB)
	transcriptRepo := repository.NewTranscriptRepository(db.DB)

	backendClient := backend.NewClient(cfg.APIBaseURL(), cfg.BackendTimeout())
	llmClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, config.ChatTemperature, config.ChatTimeout)

	authService := service.NewAuthService(backendClient, sessionStore, oauthStateRepo, service.GoogleOAuthConfig(cfg))
	agentService := service.NewAgentService(backendClient)
	dashboardService := service.NewDashboardService(backendClient)
	chatRelay := service.NewChatRelay(llmClient)
	transcriptService := service.NewTranscriptService(transcriptRepo)
	agentChatService := service.NewAgentChatService(backendClient, chatRelay, transcriptService)

	routeGuard := middleware.NewRouteGuard(sessionStore)
	quotaMiddleware := middleware.NewQuotaMiddleware(redis.NewUsageCounter(redisClient.Client))
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		redis.NewRateLimiter(redisClient.Client, config.RateLimitWindow), cfg.APIRateLimitPerMin,
	)
	loginLimiter := middleware.NewLoginRateLimiter(middleware.DefaultLoginMaxAttempts, middleware.DefaultLoginWindow)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, sessionStore, loginLimiter, isProduction)
	agentHandler := handler.NewAgentHandler(agentService)
	chatHandler := handler.NewChatHandler(chatRelay, agentChatService, transcriptService, quotaMiddleware.Handler)
	dataSourceHandler := handler.NewDataSourceHandler(backendClient)
	billingHandler := handler.NewBillingHandler(backendClient)
	settingsHandler := handler.NewSettingsHandler(backendClient)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	spaHandler := handler.NewSPAHandler(cfg.StaticDir)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := db.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			status, code = "degraded", http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(routeGuard.Handler)

		r.Route("/api", func(r chi.Router) {
			r.Use(rateLimitMiddleware.Handler)
			r.Use(csrfMiddleware.Handler)

			// Chat streams outlive the request timeout.
			r.Mount("/chat", chatHandler.Routes())

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
				r.Mount("/auth", authHandler.Routes())
				r.Mount("/agents", agentHandler.Routes())
				r.Mount("/data-sources", dataSourceHandler.Routes())
				r.Mount("/billing", billingHandler.Routes())
				r.Mount("/settings", settingsHandler.Routes())
				r.Mount("/dashboard", dashboardHandler.Routes())
			})
		})

		r.NotFound(spaHandler.ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(oauthStateRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Bool("production", isProduction).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
