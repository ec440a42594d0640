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

	"sugeria/backend/internal/cache"
	"sugeria/backend/internal/config"
	"sugeria/backend/internal/httpapi"
	"sugeria/backend/internal/recommendation"
	"sugeria/backend/internal/service"
	"sugeria/backend/internal/store"
	"sugeria/backend/internal/store/memory"
	pgstore "sugeria/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.Database.URL != "":
		pg, err := pgstore.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and database url is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	case cfg.Data.Dir != "":
		mem, err := memory.NewFromDir(cfg.Data.Dir)
		if err != nil {
			log.Fatalf("failed to load dataset from %s: %v", cfg.Data.Dir, err)
		}
		repo = mem
		log.Printf("repository: in-memory (loaded from %s)", cfg.Data.Dir)
	default:
		repo = memory.NewSeeded()
		log.Println("repository: in-memory (seeded)")
	}

	cacheStore := cache.RecommendationCache(cache.NoopRecommendationCache{})
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisRecommendationCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	recommender := recommendation.NewEngine(cfg.Recommender, cacheStore)
	svc := service.New(repo, recommender)
	auth := httpapi.NewAuthManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.Server.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("recommendation backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg *config.Config) error {
	if len(cfg.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be set and at least 32 characters")
	}
	return nil
}
