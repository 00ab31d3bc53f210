package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
	"taskflow/internal/repositories"
	"taskflow/internal/routes"
	"taskflow/internal/services"
	"taskflow/pkg/logger"
)

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		log.Fatal("failed to init logger: ", err)
	}
	defer zlog.Sync() //nolint:errcheck

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zlog.Warn("failed to close database", zap.Error(err))
		}
	}()
	if err := db.Ping(); err != nil {
		zlog.Fatal("database is unreachable", zap.Error(err))
	}

	if cfg.Migrations.Enabled {
		if err := database.RunMigrations(db, cfg.Migrations.Path); err != nil {
			zlog.Fatal("failed to run migrations", zap.Error(err))
		}
		zlog.Info("migrations applied", zap.String("path", cfg.Migrations.Path))
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	authService := services.NewAuthService(userRepo, []byte(cfg.JWT.Secret), cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo, authService, emailService, zlog)
	taskService := services.NewTaskService(taskRepo, userRepo, zlog)
	resetService := services.NewPasswordResetService(
		userRepo,
		resetRepo,
		emailService,
		authService,
		cfg.PasswordReset.Validity(),
		zlog,
	)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, resetService, cfg.PasswordReset.ExposeToken, zlog)
	userHandler := handlers.NewUserHandler(userService, zlog)
	taskHandler := handlers.NewTaskHandler(taskService, zlog)

	// === Gin ===
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zlog))

	routes.SetupRoutes(router, []byte(cfg.JWT.Secret), authHandler, userHandler, taskHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info("server listening", zap.String("addr", listenAddr))
	if err := router.Run(listenAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
