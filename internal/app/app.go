package app

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "authsystem/docs"
	"authsystem/internal/config"
	"authsystem/internal/handlers"
	"authsystem/internal/middleware"
	"authsystem/internal/repositories"
	"authsystem/internal/routes"
	"authsystem/internal/services"
)

func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to DB: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close DB: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)

	// === Services ===
	// без секрета подписи не стартуем
	tokenService, err := services.NewTokenService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL(),
		cfg.Auth.RefreshTokenTTL(),
	)
	if err != nil {
		log.Fatal("Failed to init token service: ", err)
	}

	var emailService services.EmailService
	if cfg.Email.Configured() {
		emailService = services.NewEmailService(cfg.Email)
	} else {
		log.Printf("[app] SMTP is not configured, emails will be skipped")
	}

	authService := services.NewAuthService(userRepo, tokenService, emailService, cfg.Auth)
	userService := services.NewUserService(userRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService, tokenService, cfg.Auth.CookieTokens)
	userHandler := handlers.NewUserHandler(userService)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(recoveryMiddleware(cfg.Server.DevMode))
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, tokenService, authHandler, userHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

// recoveryMiddleware: наружу — общий ответ, детали паники только в логи
// (и в ответ в dev-режиме).
func recoveryMiddleware(devMode bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("[panic] %v\n%s", recovered, debug.Stack())
		resp := gin.H{"error": "An unexpected error occurred. Please try again later."}
		if devMode {
			resp["details"] = fmt.Sprintf("%v", recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
