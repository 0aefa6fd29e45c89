package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/antifraud"
	"github.com/NikSneMC/prod-2025-promo-api/internal/api"
	"github.com/NikSneMC/prod-2025-promo-api/internal/auth"
	"github.com/NikSneMC/prod-2025-promo-api/internal/cache"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository/postgres"
	"github.com/NikSneMC/prod-2025-promo-api/internal/scheduler"
	schedulerjobs "github.com/NikSneMC/prod-2025-promo-api/internal/scheduler/jobs"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
	loggerpkg "github.com/NikSneMC/prod-2025-promo-api/pkg/logger"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		URL            string        `mapstructure:"url"`
		MaxConns       int           `mapstructure:"max_conns"`
		PingTimeout    time.Duration `mapstructure:"ping_timeout"`
		MigrationsPath string        `mapstructure:"migrations_path"`
	} `mapstructure:"database"`
	Redis struct {
		Addr          string `mapstructure:"addr"`
		DB            int    `mapstructure:"db"`
		PoolSize      int    `mapstructure:"pool_size"`
		MetaNamespace string `mapstructure:"meta_namespace"`
	} `mapstructure:"redis"`
	Antifraud struct {
		Address        string        `mapstructure:"address"`
		AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	} `mapstructure:"antifraud"`
	Activation struct {
		RateLimit  int           `mapstructure:"rate_limit"`
		RateWindow time.Duration `mapstructure:"rate_window"`
	} `mapstructure:"activation"`
	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	logger, err := loggerpkg.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Sync() //nolint:errcheck

	if !strings.EqualFold(cfg.App.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runMigrations(cfg); err != nil {
		logger.Fatal("apply migrations failed", zap.Error(err))
	}

	dbPool, err := newDBPool(context.Background(), cfg)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	defer dbPool.Close()

	cacheClient, err := cache.NewClient(context.Background(), cache.Config{
		Addr:          cfg.Redis.Addr,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MetaNamespace: cfg.Redis.MetaNamespace,
	})
	if err != nil {
		logger.Fatal("connect redis failed", zap.Error(err))
	}
	defer cacheClient.Close()

	userRepo := postgres.NewUserRepository(dbPool)
	companyRepo := postgres.NewCompanyRepository(dbPool)
	promoRepo := postgres.NewPromoRepository(dbPool)
	activationRepo := postgres.NewActivationRepository(dbPool)
	likeRepo := postgres.NewLikeRepository(dbPool)
	commentRepo := postgres.NewCommentRepository(dbPool)

	tokenStore := auth.NewTokenStore(cacheClient)
	fraudClient := antifraud.NewClient(antifraud.Config{
		Address:        cfg.Antifraud.Address,
		AttemptTimeout: cfg.Antifraud.AttemptTimeout,
	}, cacheClient, logger)

	authSvc := service.NewAuthService(userRepo, companyRepo, tokenStore, logger)
	userSvc := service.NewUserService(userRepo, logger)
	promoSvc := service.NewPromoService(promoRepo, likeRepo, activationRepo, logger)
	engagementSvc := service.NewEngagementService(promoRepo, likeRepo, commentRepo, logger)
	redemptionSvc := service.NewRedemptionService(userRepo, promoRepo, activationRepo, fraudClient, logger)

	cronRunner := scheduler.NewScheduler(scheduler.Deps{
		PromoJob: schedulerjobs.NewPromoJob(promoRepo, logger),
	}, logger)
	cronRunner.Start()
	defer cronRunner.Stop()

	router := api.NewRouter(api.Services{
		Auth:       authSvc,
		Users:      userSvc,
		Promos:     promoSvc,
		Engagement: engagementSvc,
		Redemption: redemptionSvc,
	}, api.Options{
		TokenStore:     tokenStore,
		Logger:         logger,
		AllowOrigins:   cfg.CORS.AllowOrigins,
		ActivateLimit:  cfg.Activation.RateLimit,
		ActivateWindow: cfg.Activation.RateWindow,
		ReadyCheck: func(ctx context.Context) error {
			return dbPool.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	logger.Info("server started", zap.String("addr", srv.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			logger.Fatal("server exited unexpectedly", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server failed", zap.Error(err))
	}
}

func loadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "PROMO_DATABASE_URL", "POSTGRES_CONN")
	_ = v.BindEnv("redis.addr", "PROMO_REDIS_ADDR", "REDIS_HOST")
	_ = v.BindEnv("antifraud.address", "PROMO_ANTIFRAUD_ADDRESS", "ANTIFRAUD_ADDRESS")
	_ = v.BindEnv("server.port", "PROMO_SERVER_PORT", "SERVER_PORT")

	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.ping_timeout", "3s")
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.meta_namespace", "promo")
	v.SetDefault("antifraud.address", "localhost:9090")
	v.SetDefault("antifraud.attempt_timeout", "2s")
	v.SetDefault("activation.rate_limit", 30)
	v.SetDefault("activation.rate_window", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("cors.allow_origins", []string{})

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return Config{}, fmt.Errorf("read config file failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config failed: %w", err)
	}

	if cfg.Database.URL == "" {
		return Config{}, errors.New("database.url is required")
	}
	return cfg, nil
}

func newDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database.url failed: %w", err)
	}

	if cfg.Database.MaxConns > 0 && cfg.Database.MaxConns <= 1<<15 {
		poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	return pool, nil
}

func runMigrations(cfg Config) error {
	migrator, err := migrate.New("file://"+cfg.Database.MigrationsPath, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer migrator.Close() //nolint:errcheck

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations failed: %w", err)
	}
	return nil
}
