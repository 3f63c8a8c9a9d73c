package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-engine/api/swagger"
	"github.com/noah-isme/timetable-engine/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-engine/internal/middleware"
	"github.com/noah-isme/timetable-engine/internal/repository"
	"github.com/noah-isme/timetable-engine/internal/service"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	"github.com/noah-isme/timetable-engine/pkg/config"
	"github.com/noah-isme/timetable-engine/pkg/database"
	"github.com/noah-isme/timetable-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-engine/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// @title Timetable Engine API
// @version 1.0.0
// @description Schedule validation, enrollment and faculty disruption recovery
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	readiness := map[string]handler.Pinger{"postgres": db}

	var cacheClient redis.Cmdable
	if cfg.Timetable.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheClient = client
			readiness["redis"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(cacheClient), metrics, cfg.Timetable.CacheTTL, logr, cacheClient != nil)

	courses := repository.NewCourseRepository(db)
	slots := repository.NewTimeSlotRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	students := repository.NewStudentRepository(db)
	disruptions := repository.NewDisruptionRepository(db)
	audits := repository.NewCandidateAuditRepository(db)
	timetables := repository.NewTimetableRepository(db)

	timetableSvc := service.NewTimetableService(students, facultyRepo, timetables, cacheSvc, logr)
	registrationSvc := service.NewRegistrationService(courses, slots, enrollments, db, timetableSvc, metrics, validate, logr)
	disruptionSvc := service.NewDisruptionService(courses, facultyRepo, disruptions, audits, db, timetableSvc, metrics, validate, logr, service.DisruptionConfig{
		AuditLimit:         cfg.Optimizer.AuditLimit,
		DefaultWorkloadCap: cfg.Optimizer.DefaultWorkloadCap,
	})
	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	ops := handler.NewMetricsHandler(metrics, readiness)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	handler.Routes{
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Timetable:    handler.NewTimetableHandler(timetableSvc),
		Optimizer:    handler.NewOptimizerHandler(disruptionSvc),
	}.Register(r.Group(cfg.APIPrefix), internalmiddleware.JWT(verifier))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logr.Info("server stopped")
}
