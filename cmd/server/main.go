package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iliyamo/smart-cafe/internal/config"
	"github.com/iliyamo/smart-cafe/internal/database"
	"github.com/iliyamo/smart-cafe/internal/handler"
	"github.com/iliyamo/smart-cafe/internal/middleware"
	"github.com/iliyamo/smart-cafe/internal/queue"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/router"
	"github.com/iliyamo/smart-cafe/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger level comes from config, so fall back to a default one
		zap.Must(zap.NewProduction()).Fatal("config", zap.Error(err))
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database open", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cafes := repository.NewCafeRepo(db)
	menu := repository.NewMenuRepo(db)
	orders := repository.NewOrderRepo(db)
	notices := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)
	entries := repository.NewEntryRepo(db)

	if n, err := tokens.Purge(ctx, time.Now()); err != nil {
		log.Warn("purge refresh tokens", zap.Error(err))
	} else if n > 0 {
		log.Info("purged refresh tokens", zap.Int64("count", n))
	}

	if email, pass := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"); email != "" && pass != "" {
		created, err := users.EnsureAdmin(ctx, "Administrator", email, pass, cfg.BcryptCost)
		if err != nil {
			log.Error("bootstrap admin", zap.Error(err))
		} else if created {
			log.Info("bootstrap admin created", zap.String("email", email))
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and menu cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	publisher := queue.NewPublisher(cfg.AMQPURL, cfg.OrderQueue, log)
	consumer := &queue.Consumer{URL: cfg.AMQPURL, Queue: cfg.OrderQueue, LogPath: cfg.OrderLogPath, Log: log}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("order consumer stopped", zap.Error(err))
		}
	}()

	svc := &service.OrderService{Menu: menu, Cafes: cafes, Orders: orders, Events: publisher, Log: log}

	admin := handler.NewAdminHandler(users, cafes, menu, orders, notices, log)
	admin.Invalidate = func(ctx context.Context) error {
		return middleware.InvalidateCache(ctx, rdb, cacheCfg.Prefix)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(rlCfg, rdb))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret, echomw.BodyLimit("64K"))
	router.RegisterMenu(e, handler.NewMenuHandler(cafes, menu), middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterUser(e, handler.NewUserHandler(cfg, users, orders, svc, log), cfg.JWTSecret)
	router.RegisterAdmin(e, admin, cfg.JWTSecret)
	router.RegisterFoodAuthority(e, handler.NewFoodAuthorityHandler(cafes, menu, notices, log), cfg.JWTSecret)
	router.RegisterLostFound(e, handler.NewReportHandler(reports, log), cfg.JWTSecret)
	router.RegisterDiary(e, handler.NewEntryHandler(entries, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func newLogger(cfg config.Config) *zap.Logger {
	zc := zap.NewDevelopmentConfig()
	if cfg.Production() {
		zc = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zap.Must(zc.Build())
}
