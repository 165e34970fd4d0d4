package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/dataroom-api/api/swagger"
	"github.com/noah-isme/dataroom-api/internal/drive"
	"github.com/noah-isme/dataroom-api/internal/handler"
	"github.com/noah-isme/dataroom-api/internal/middleware"
	"github.com/noah-isme/dataroom-api/internal/repository"
	"github.com/noah-isme/dataroom-api/internal/service"
	"github.com/noah-isme/dataroom-api/pkg/cache"
	"github.com/noah-isme/dataroom-api/pkg/config"
	"github.com/noah-isme/dataroom-api/pkg/database"
	"github.com/noah-isme/dataroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dataroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dataroom-api/pkg/middleware/requestid"
	securemiddleware "github.com/noah-isme/dataroom-api/pkg/middleware/secure"
	"github.com/noah-isme/dataroom-api/pkg/storage"
)

// @title Data Room API
// @version 0.1.0
// @description Document rooms with Google Drive import, RBAC and audit trail
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.MigrateUp(db.DB); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	// Redis is an optional accelerator: a failed connection degrades drive
	// listing to uncached, it does not block startup.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, drive listing cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	fileRepo := repository.NewFileRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(auditRepo, roomRepo, logr)

	newClient := func(tokens drive.TokenBundle) service.ContentClient {
		return drive.New(drive.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Timeout:      cfg.Google.Timeout,
		}, tokens)
	}

	authSvc := service.NewAuthService(userRepo, tokenRepo, cacheRepo, logr, service.AuthConfig{
		ClientID:        cfg.Google.ClientID,
		ClientSecret:    cfg.Google.ClientSecret,
		RedirectURI:     cfg.Google.RedirectURI,
		Scopes:          cfg.Google.Scopes,
		SessionSecret:   cfg.Session.Secret,
		SessionExpiry:   cfg.Session.Expiration,
		Issuer:          "dataroom-api",
		AllowEmailParam: cfg.Rooms.AllowEmailParam,
	})
	importSvc := service.NewImportService(tokenRepo, fileRepo, roomRepo, store, auditSvc, metricsSvc, logr, newClient, 0)
	driveSvc := service.NewDriveService(tokenRepo, cacheRepo, metricsSvc, logr, newClient, cfg.Drive.ListCacheTTL)
	roomSvc := service.NewRoomService(roomRepo, userRepo, fileRepo, store, auditSvc, nil, logr, cfg.Rooms.PublicRoomID)
	fileSvc := service.NewFileService(fileRepo, store, logr)

	if cfg.Seed.Enabled {
		seedSvc := service.NewSeedService(userRepo, roomRepo, fileRepo, store, logr, cfg.Rooms.PublicRoomID, cfg.Seed.RoomName)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := seedSvc.Run(ctx); err != nil {
			logr.Sugar().Warnw("demo seed failed", "error", err)
		}
		cancel()
	}

	authHandler := handler.NewAuthHandler(authSvc, handler.AuthConfig{
		CookieName:   cfg.Session.CookieName,
		CookieMaxAge: int(cfg.Session.Expiration.Seconds()),
		Secure:       cfg.Env == config.EnvProduction,
	})
	importHandler := handler.NewImportHandler(importSvc)
	driveHandler := handler.NewDriveHandler(driveSvc)
	fileHandler := handler.NewFileHandler(fileSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(securemiddleware.Headers())
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Session(authSvc, cfg.Session.CookieName))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/auth")
	{
		auth.GET("/google/login", authHandler.Login)
		auth.GET("/google/callback", authHandler.Callback)
		auth.GET("/me", authHandler.Me)
		auth.POST("/logout", authHandler.Logout)
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/drive/files", driveHandler.List)
		api.POST("/import", importHandler.Import)

		api.GET("/files", fileHandler.List)
		api.GET("/files/:id/preview", fileHandler.Preview)
		api.DELETE("/files/:id", fileHandler.Delete)

		api.POST("/rooms", roomHandler.Create)
		api.GET("/rooms", roomHandler.List)
		api.POST("/rooms/:id/members", roomHandler.AddMember)
		api.GET("/rooms/:id/members", roomHandler.ListMembers)
		api.GET("/rooms/:id/files", roomHandler.ListFiles)
		api.POST("/rooms/:id/files", roomHandler.LinkFile)
		api.GET("/rooms/:id/files/:fileId/preview", roomHandler.PreviewFile)
		api.DELETE("/rooms/:id/files/:fileId", roomHandler.DeleteFile)
		api.GET("/rooms/:id/audit/export", auditHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
