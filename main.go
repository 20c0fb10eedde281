package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cppla/caltrack/config"
	"github.com/cppla/caltrack/migrations"
	"github.com/cppla/caltrack/repository"
	"github.com/cppla/caltrack/routes"
	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	repo, err := openRepository(cfg)
	if err != nil {
		utils.Logger.Fatal("failed to open storage", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}

	opts := services.Options{
		CacheTTL: time.Duration(cfg.CacheTTLSeconds) * time.Second,
		Logger:   utils.Logger.Named("calories"),
	}
	srv := utils.NewServer(":"+cfg.AppPort, nil, utils.DefaultReadTimeout, utils.DefaultWriteTimeout)
	srv.OnShutdown("storage", repo.Close)

	if cfg.CacheEnabled {
		rc, err := utils.NewRedis(cfg)
		if err != nil {
			utils.Logger.Warn("redis unreachable, serving without cache", zap.Error(err))
			_ = rc.Close()
		} else {
			opts.Cache = utils.NewRedisCache(rc)
			srv.OnShutdown("redis", rc.Close)
		}
	}

	svc := services.NewCalorieService(repo, opts)
	srv.Handler = routes.SetupRouter(cfg, svc)

	utils.Sugar.Infof("Starting server on port %s (driver=%s, cache=%t)", cfg.AppPort, cfg.DBDriver, opts.Cache != nil)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// openRepository connects the configured store and brings its schema up to date.
func openRepository(cfg config.AppConfig) (repository.Repository, error) {
	if cfg.DBDriver == config.DriverMemory {
		utils.Logger.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := migrations.Run(ctx, db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return repository.NewGormRepository(db), nil
}
