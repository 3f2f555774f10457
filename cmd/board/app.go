package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/speakeasy-board-service/config"
	"github.com/fekuna/speakeasy-board-service/internal/auth"
	"github.com/fekuna/speakeasy-board-service/internal/blob"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/repository"
	"github.com/fekuna/speakeasy-board-service/internal/board/usecase"
	"github.com/fekuna/speakeasy-board-service/internal/catalog"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// app is the wired service shared by every command.
type app struct {
	cfg     *config.Config
	logger  logger.ZapLogger
	db      *sqlx.DB
	local   blob.Store
	store   *usecase.TreeStore
	session *auth.Session
}

func loadConfig() *config.Config {
	_ = godotenv.Load(envFile)
	return config.LoadEnv()
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = "debug"
	}
	return logger.NewZapLogger(logConfig)
}

func newApp(ctx context.Context) (*app, error) {
	cfg := loadConfig()
	appLogger := newLogger(cfg)

	a := &app{cfg: cfg, logger: appLogger, session: auth.NewSession()}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	local, err := openLocalStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.local = local
	appLogger.Info("Opened local board store", zap.String("store", cfg.Local.Store))

	var remote usecase.RemoteFactory
	if cfg.Postgres.Enabled() {
		db, err := openPostgres(ctx, cfg.Postgres)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		remote = func(userID string) board.Adapter {
			return repository.NewPGRepository(db, userID)
		}
	} else {
		appLogger.Warn("POSTGRES_HOST not set, every identity uses the local board")
	}

	a.store = usecase.NewTreeStore(usecase.Options{
		Local:   repository.NewLocalRepository(local),
		Remote:  remote,
		Catalog: cat,
		Logger:  appLogger,
	})
	return a, nil
}

func openLocalStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Local.Store {
	case "redis":
		store, err := blob.NewRedisStore(ctx, &blob.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "speakeasy:",
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "file", "":
		store, err := blob.NewFileStore(cfg.Local.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown LOCAL_STORE %q", cfg.Local.Store)
	}
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// selectUser points the store at the --user board and loads it.
func (a *app) selectUser(ctx context.Context) error {
	var u *auth.User
	if userID != "" {
		if a.db == nil {
			return fmt.Errorf("--user needs POSTGRES_HOST")
		}
		u = &auth.User{ID: userID}
	}
	return a.store.SwitchUser(ctx, u)
}

func (a *app) Close() {
	if a.store != nil {
		a.store.WaitPersisted()
	}
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			a.logger.Warn("Failed to close local store", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
