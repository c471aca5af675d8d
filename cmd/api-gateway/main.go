package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-ops/roomdesk-api/api/swagger"
	"github.com/campus-ops/roomdesk-api/internal/handler"
	"github.com/campus-ops/roomdesk-api/internal/middleware"
	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/repository"
	"github.com/campus-ops/roomdesk-api/internal/service"
	"github.com/campus-ops/roomdesk-api/pkg/cache"
	"github.com/campus-ops/roomdesk-api/pkg/config"
	"github.com/campus-ops/roomdesk-api/pkg/database"
	"github.com/campus-ops/roomdesk-api/pkg/logger"
	corsmiddleware "github.com/campus-ops/roomdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-ops/roomdesk-api/pkg/middleware/requestid"
	"github.com/campus-ops/roomdesk-api/pkg/storage"
)

// @title RoomDesk API
// @version 1.0.0
// @description Campus room scheduling and issue tracking
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
	defer db.Close() //nolint:errcheck

	var kv *cache.KV
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
	} else {
		kv = cache.NewKV(redisClient)
		defer redisClient.Close() //nolint:errcheck
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	metrics := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	userSvc := service.NewUserService(userRepo, logr)
	roomSvc := service.NewRoomService(roomRepo, logr)
	importSvc := service.NewImportService(scheduleRepo, uploadStore, signer, metrics, cfg.Uploads, logr)
	issueSvc := service.NewIssueService(issueRepo, roomRepo, userRepo, logr)
	exportSvc := service.NewExportService(issueRepo, roomRepo, userRepo, logr)

	dashboardSvc := service.NewDashboardService(roomRepo, issueRepo, scheduleRepo, nil, cfg.Dashboard, logr)
	if kv != nil {
		dashboardSvc = service.NewDashboardService(roomRepo, issueRepo, scheduleRepo, kv, cfg.Dashboard, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	importHandler := handler.NewImportHandler(importSvc)
	issueHandler := handler.NewIssueHandler(issueSvc, exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	userHandler := handler.NewUserHandler(userSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.Authenticate(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.Authenticate(authSvc), authHandler.Me)
	}

	rooms := api.Group("/rooms")
	{
		rooms.GET("", roomHandler.Search)
		rooms.GET("/search", roomHandler.Search)
		rooms.GET("/autocomplete", roomHandler.Autocomplete)
		rooms.GET("/buildings", roomHandler.Buildings)
		rooms.GET("/:id", roomHandler.Get)
		rooms.GET("/:id/schedules", importHandler.RoomSchedules)

		staff := rooms.Group("", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
		{
			staff.POST("/:id/toggle", roomHandler.ToggleStatus)
		}

		admin := rooms.Group("", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("", roomHandler.Create)
			admin.PUT("/:id", roomHandler.Update)
			admin.DELETE("/:id", roomHandler.Delete)
		}
	}

	imports := api.Group("/imports")
	{
		imports.GET("/download", importHandler.Download)

		staff := imports.Group("", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
		{
			staff.POST("", importHandler.Upload)
			staff.GET("", importHandler.List)
			staff.GET("/:id", importHandler.Get)
			staff.GET("/:id/schedules", importHandler.Schedules)
			staff.POST("/:id/download-token", importHandler.DownloadToken)
		}

		admin := imports.Group("", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			admin.DELETE("/:id", importHandler.Delete)
		}
	}

	issues := api.Group("/issues")
	{
		issues.GET("", issueHandler.List)
		issues.GET("/:id", issueHandler.Get)
		issues.POST("", issueHandler.Report)

		staff := issues.Group("", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleMaintenance))
		{
			staff.POST("/:id/assign", issueHandler.Assign)
			staff.PUT("/:id/status", issueHandler.UpdateStatus)
			staff.POST("/:id/comments", issueHandler.AddComment)
			staff.POST("/:id/resolve", issueHandler.Resolve)
			staff.GET("/export", issueHandler.Export)
		}
	}

	if cfg.Dashboard.Enabled {
		dashboard := api.Group("/dashboard", middleware.Authenticate(authSvc))
		{
			dashboard.GET("", dashboardHandler.Overview)
			dashboard.GET("/overview", dashboardHandler.Overview)
		}
	}

	users := api.Group("/users", middleware.Authenticate(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/assignees", userHandler.Assignees)
		users.GET("/:id", userHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
