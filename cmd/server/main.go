package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	"github.com/iliyamo/lightbnb/internal/config"   // Internal config loader
	"github.com/iliyamo/lightbnb/internal/database" // Store connection
	"github.com/iliyamo/lightbnb/internal/handler"
	"github.com/iliyamo/lightbnb/internal/middleware"
	"github.com/iliyamo/lightbnb/internal/queue"
	"github.com/iliyamo/lightbnb/internal/repository"
	"github.com/iliyamo/lightbnb/internal/router" // Internal router setup
	publisher "github.com/iliyamo/lightbnb/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
	cfg := config.Load() // Load environment config

	db, err := database.Open(database.Options{
		Driver:  cfg.DBDriver,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		SSLMode: cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	users := repository.NewUserCache(repository.NewUserRepo(db), cfg.UserCacheSize, cfg.UserCacheTTL)
	defer users.Stop()
	props := repository.NewPropertyRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Redis-backed cache and limiter degrade to pass-through without Redis
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	var events handler.EventPublisher
	if cfg.EventsEnabled {
		events = publisher.New(cfg.AMQPURL)
		go func() {
			if err := queue.StartReservationConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("reservation-consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Session(cfg.JWTSecret))

	propertyHandler := handler.NewPropertyHandler(props, cache)
	router.RegisterRoutes(e, db)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users), limiter)
	router.RegisterPublic(e, propertyHandler, cache.Middleware())
	router.RegisterOwner(e, propertyHandler, limiter)
	router.RegisterGuest(e, handler.NewReservationHandler(reservations, props, events), limiter)
	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors.New(corsOptions(cfg.CORSOrigins)).Handler(e),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (env=%s, db=%s)", srv.Addr, cfg.Env, cfg.DBDriver) // Print startup info
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// corsOptions allows credentialed requests (the session cookie) only for an
// explicit origin list.  Browsers refuse credentials alongside a wildcard
// origin, so "*" serves token-authenticated API clients only.
func corsOptions(origins []string) cors.Options {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !wildcard,
	}
}
