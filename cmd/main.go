package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/auth"
	"github.com/backend-starter/api/internal/config"
	"github.com/backend-starter/api/internal/item"
	"github.com/backend-starter/api/internal/middleware"
	"github.com/backend-starter/api/internal/user"
	"github.com/backend-starter/api/internal/utils"
	"github.com/backend-starter/api/internal/utils/db"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := newLogger(cfg.Environment)
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.AutoMigrate(
		&user.User{},
		&item.Item{},
		&auth.RefreshToken{},
	); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// Auth subsystem wiring: everything takes its dependencies
	// explicitly, nothing reads globals.
	userRepo := user.NewRepository()
	identities := user.NewIdentityStore(userRepo)
	tokens := auth.NewTokenService(cfg)
	refreshStore := auth.NewRefreshStore(database, cfg.RefreshTokenSecret, cfg.RefreshTokenTTL)
	sessions := auth.NewSessionManager(database, identities, tokens, refreshStore, cfg.ClockSkew, log)

	authHandler := auth.NewHandler(sessions, log)
	userHandler := user.NewHandler(database, log)
	itemHandler := item.NewHandler(database, log)

	authenticated := auth.Middleware(database, tokens, identities)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)
	refreshLimiter := middleware.NewRateLimiter(cfg.RefreshRatePerMinute)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.HandleFunc("/health", healthHandler(database)).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods("POST")
	api.Handle("/auth/refresh", refreshLimiter.Middleware(http.HandlerFunc(authHandler.Refresh))).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	api.HandleFunc("/users", userHandler.Register).Methods("POST")
	api.HandleFunc("/users", userHandler.List).Methods("GET")

	me := api.PathPrefix("/users/me").Subrouter()
	me.Use(authenticated)
	me.HandleFunc("", userHandler.Me).Methods("GET")
	me.HandleFunc("/password", userHandler.ChangePassword).Methods("PUT")

	items := api.PathPrefix("/items").Subrouter()
	items.Use(authenticated)
	items.HandleFunc("", itemHandler.Create).Methods("POST")
	items.HandleFunc("", itemHandler.List).Methods("GET")
	items.HandleFunc("/{id}", itemHandler.Get).Methods("GET")
	items.HandleFunc("/{id}", itemHandler.Update).Methods("PUT")
	items.HandleFunc("/{id}", itemHandler.Delete).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	log.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, c.Handler(r)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	if strings.EqualFold(environment, "production") {
		log, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return log
}

// healthHandler reports liveness plus database connectivity.
func healthHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "connected"}
		code := http.StatusOK

		sqlDB, err := database.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = "disconnected"
		}
		utils.WriteJSON(w, code, status)
	}
}
