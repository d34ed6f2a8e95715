package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campushq/attendance-api/api/swagger"
	"github.com/campushq/attendance-api/internal/face"
	"github.com/campushq/attendance-api/internal/handler"
	"github.com/campushq/attendance-api/internal/middleware"
	"github.com/campushq/attendance-api/internal/models"
	"github.com/campushq/attendance-api/internal/repository"
	"github.com/campushq/attendance-api/internal/scheduler"
	"github.com/campushq/attendance-api/internal/service"
	"github.com/campushq/attendance-api/pkg/cache"
	"github.com/campushq/attendance-api/pkg/config"
	"github.com/campushq/attendance-api/pkg/database"
	"github.com/campushq/attendance-api/pkg/jobs"
	"github.com/campushq/attendance-api/pkg/logger"
	corsmiddleware "github.com/campushq/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/attendance-api/pkg/middleware/requestid"
)

// @title Campus Attendance API
// @version 1.0.0
// @description Geofenced, face-verified attendance check-in service
// @BasePath /api/v1
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, read-side caching disabled", zap.Error(err))
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, 5*time.Minute, logr, true)
	}

	// Face pipeline.
	encoder := face.NewHTTPEncoder(cfg.Checkin.FaceServiceURL, cfg.Checkin.FaceServiceWait)
	verifier := face.NewVerifier(encoder, cfg.Checkin.FaceThreshold, cfg.Checkin.MaxImageEdge)

	facePool := jobs.NewPool("face-pipeline", jobs.PoolConfig{
		Workers: cfg.Checkin.PipelineWorkers,
		Logger:  logr,
	})
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()
	facePool.Start(poolCtx)
	defer facePool.Stop()

	// Services.
	sessionCache := service.NewSessionCache(cfg.Checkin.SessionCacheTTL)
	resolver := service.NewSessionResolver(sessionRepo, sessionCache, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	checkinSvc := service.NewCheckinService(resolver, userRepo, attendanceRepo, verifier, facePool, validate, metricsSvc, logr)
	enrollmentSvc := service.NewFaceEnrollmentService(verifier, userRepo, facePool, logr)
	sessionSvc := service.NewSessionService(sessionRepo, courseRepo, attendanceRepo, enrollmentRepo, resolver, cacheSvc, validate, cfg.Checkin.DefaultRadiusM, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(attendanceRepo, leaveRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	checkinHandler := handler.NewCheckinHandler(checkinSvc, enrollmentSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	students := authed.Group("")
	students.Use(middleware.RequireRoles(models.RoleStudent))
	students.POST("/checkin", checkinHandler.Checkin)
	students.POST("/checkin/face", checkinHandler.EnrollFace)
	students.POST("/leaves", leaveHandler.Apply)
	students.GET("/leaves", leaveHandler.ListMine)

	faculty := authed.Group("")
	faculty.Use(middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin))
	faculty.POST("/sessions", sessionHandler.Create)
	faculty.POST("/sessions/:id/end", sessionHandler.End)
	faculty.GET("/sessions/:id/report", sessionHandler.Export)
	faculty.GET("/leaves/pending", leaveHandler.ListPending)
	faculty.POST("/leaves/:id/review", leaveHandler.Review)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/courses", courseHandler.Create)
	admin.POST("/courses/:id/faculty", courseHandler.AssignFaculty)
	admin.POST("/courses/:id/enrollments", courseHandler.BulkEnroll)

	authed.GET("/courses", courseHandler.List)
	authed.GET("/sessions/active/summary", sessionHandler.Summary)
	authed.GET("/dashboard/students/:id", dashboardHandler.StudentOverview)

	var sweeper *scheduler.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper = scheduler.NewSweeper(sessionRepo, resolver, cfg.Sweeper.Interval, logr)
		if err := sweeper.Start(); err != nil {
			logr.Fatal("failed to start session sweeper", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
