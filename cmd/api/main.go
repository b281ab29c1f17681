package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dhermica-backend/internal/admin"
	"dhermica-backend/internal/appointments"
	"dhermica-backend/internal/auth"
	"dhermica-backend/internal/cache"
	"dhermica-backend/internal/config"
	"dhermica-backend/internal/db"
	"dhermica-backend/internal/grid"
	"dhermica-backend/internal/middleware"
	"dhermica-backend/internal/professionals"
	"dhermica-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "dhermica-backend",
		}
	}

	val := validation.New()

	proRepo := professionals.NewRepository(cols.Professionals)
	proService := professionals.NewService(proRepo, cfg.Timezone)
	proHandler := professionals.NewHandler(proService, val, logger)

	apptRepo := appointments.NewRepository(cols)
	mirror := appointments.NewMirror(cols)
	syncer := appointments.NewSyncer(proService, mirror, logger, cfg.Timezone)
	feeds := appointments.NewFeeds(cols, apptRepo)
	apptService := appointments.NewService(apptRepo, proService, syncer, feeds, logger, cfg.Timezone)
	apptHandler := appointments.NewHandler(apptService, val, cacheStore, logger)

	gridHandler := grid.NewHandler(apptService, proService, val, cacheStore, logger,
		time.Duration(cfg.CacheTTLSeconds)*time.Second)

	adminHandler := admin.NewHandler(cfg, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	bookingsLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	registerRoutes := func(api chi.Router) {
		api.Get("/professionals", proHandler.List)
		api.Get("/professionals/{id}", proHandler.GetByID)

		api.With(bookingsLimiter.Middleware).Post("/appointments", apptHandler.Create)
		api.Get("/appointments", apptHandler.ListByRange)
		api.Get("/appointments/search", apptHandler.Search)
		api.Get("/appointments/{id}", apptHandler.GetByID)
		api.Put("/appointments/{id}", apptHandler.Update)
		api.Delete("/appointments/{id}", apptHandler.Delete)

		api.Get("/schedule", gridHandler.GetSchedule)
		api.Get("/schedule/stream", gridHandler.StreamSchedule)

		api.Route("/admin", func(adminRouter chi.Router) {
			adminRouter.Post("/login", adminHandler.Login)
			adminRouter.Post("/refresh", adminHandler.Refresh)
			adminRouter.Post("/logout", adminHandler.Logout)

			// Important (chi): middlewares must be attached before defining routes.
			// Login/refresh/logout stay public; the rest goes through a sub-router.
			adminRouter.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))
				protected.Post("/professionals", proHandler.AdminCreate)
				protected.Put("/professionals/{id}", proHandler.AdminUpdate)
				protected.Patch("/professionals/{id}/deactivate", proHandler.AdminDeactivate)
				protected.Delete("/professionals/{id}", proHandler.AdminDelete)
			})
		})
	}

	r.Route("/api", registerRoutes)
	r.Route("/api/v1", registerRoutes)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
