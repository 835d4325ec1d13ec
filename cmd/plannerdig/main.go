package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kuzcou/plannerdig/api"
	"github.com/kuzcou/plannerdig/config"
	"github.com/kuzcou/plannerdig/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal(err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)

	store, err := storage.New(cfg.Storage.ConnectionString, cfg.Storage.Tables, cfg.Storage.ActivityQueue)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	rc := redis.NewClient(cfg.Redis.RedisOptions())
	cached := storage.NewCache(store, rc, cfg.Redis.CacheTTL)
	deduper := api.NewRedisDeduper(rc, cfg.Redis.DedupeTTL)

	authCfg := api.AuthConfig{KeyCacheTTL: cfg.Auth.KeyCacheTTL}
	var jwks *keyfunc.JWKS
	if cfg.Auth.Local() {
		authCfg.SharedSecret = cfg.Auth.SharedSecret
		log.Warn("local hs256 auth enabled")
	} else {
		authCfg.Audience = cfg.Auth.Audience
		authCfg.Issuer = cfg.Auth.Issuer()
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL(), keyfunc.Options{RefreshInterval: time.Hour})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
	}
	auth := api.NewAuth(jwks, authCfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding, api.HeaderIdempotencyKey},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	stop := api.Register(e, cached, auth, deduper, logger, api.PoolConfigFromEnv())

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	stop()
	if jwks != nil {
		jwks.EndBackground()
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Errorf("tracer shutdown: %v", err)
	}
	if err := rc.Close(); err != nil {
		log.Errorf("redis close: %v", err)
	}
}
