package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"macrolog/internal/catalog"
	"macrolog/internal/crypto"
	"macrolog/internal/db"
	"macrolog/internal/docstore"
	"macrolog/internal/handlers"
	"macrolog/internal/ledger"
	mw "macrolog/internal/middleware"
)

func mustGetenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func main() {
	_ = godotenv.Load()

	var logger *zap.Logger
	var err error
	if os.Getenv("APP_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	encKey, err := base64.StdEncoding.DecodeString(os.Getenv("PROFILE_ENC_KEY"))
	if err != nil {
		logger.Fatal("PROFILE_ENC_KEY must be base64", zap.Error(err))
	}
	cipher, err := crypto.New(encKey)
	if err != nil {
		logger.Fatal("invalid PROFILE_ENC_KEY", zap.Error(err))
	}
	port := mustGetenv("PORT", "8080")

	dbConn, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err = dbConn.Ping(); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	docs := docstore.NewPostgresStore(dbConn, cipher, logger)
	registry := ledger.NewRegistry(docs, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(dbConn, registry, []byte(jwtSecret))
	profileHandler := handlers.NewProfileHandler(registry, docs)
	foodLogHandler := handlers.NewFoodLogHandler(registry)
	progressHandler := handlers.NewProgressHandler(registry)
	streamHandler := handlers.NewStreamHandler(registry, logger)
	authMW := mw.NewAuthMiddleware([]byte(jwtSecret))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Post("/auth/logout", authHandler.Logout)
			pr.Get("/me", profileHandler.GetMe)
			pr.Put("/me", profileHandler.UpdateMe)
			pr.Put("/me/details", profileHandler.SaveDetails)
			pr.Put("/me/goals", profileHandler.UpdateGoals)
			pr.Put("/me/photo", profileHandler.SavePhoto)
			pr.Get("/foodlog", foodLogHandler.List)
			pr.Post("/foodlog", foodLogHandler.Add)
			pr.Put("/foodlog/{id}", foodLogHandler.Update)
			pr.Delete("/foodlog/{id}", foodLogHandler.Delete)
			pr.Post("/weight", progressHandler.RecordWeight)
			pr.Get("/progress", progressHandler.Get)
			pr.Get("/stream", streamHandler.Serve)

			if catalogURL := os.Getenv("CATALOG_URL"); catalogURL != "" {
				catalogHandler := handlers.NewCatalogHandler(catalog.NewHTTPProvider(catalogURL))
				pr.Get("/catalog", catalogHandler.Search)
			} else {
				logger.Warn("CATALOG_URL not set; catalog search disabled")
			}
		})
	})

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", ":"+port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	registry.Shutdown()
	logger.Info("server stopped")
}
