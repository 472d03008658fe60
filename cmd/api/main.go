package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"dmphub.org/internal/auth"
	"dmphub.org/internal/authz"
	"dmphub.org/internal/config"
	"dmphub.org/internal/dmp"
	"dmphub.org/internal/httpapi"
	"dmphub.org/internal/obs"
	"dmphub.org/internal/org"
	"dmphub.org/internal/ror"
	"dmphub.org/internal/token"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("DMPHUB_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		log.Fatalf("config: DMPHUB_PG_DSN is required")
	}

	tokens, err := token.NewService(cfg.TokenSecret, cfg.TokenIssuer)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authSvc, err := auth.NewService(auth.NewPGClientStore(db), tokens, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	planStore := dmp.NewPGStore(db)
	planSvc, err := dmp.NewService(planStore)
	if err != nil {
		log.Fatalf("plan service: %v", err)
	}
	authzSvc, err := authz.NewService(authz.NewPGStore(db), planStore)
	if err != nil {
		log.Fatalf("authz service: %v", err)
	}

	registry := ror.New(cfg.RORBaseURL, cfg.ROREnabled, ror.WithRateLimit(cfg.RORRatePerSec))
	resolverOpts := []org.ResolverOption{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		resolverOpts = append(resolverOpts, org.WithCache(org.NewRedisCache(rdb), cfg.SearchCacheTTL))
	}
	resolver := org.NewResolver(org.NewPGStore(db), registry, resolverOpts...)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, authzSvc, resolver, planSvc)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting dmphub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
