package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/repository"
	"github.com/m-mizutani/recall/pkg/tool"
	memorytool "github.com/m-mizutani/recall/pkg/tool/memory"
	"github.com/m-mizutani/recall/pkg/usecase/memory"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Storage
	redisURL     string
	redisTimeout time.Duration
	atomicWrite  bool
	defaultUser  string

	// Logging
	logLevel  string
	logFormat string
}

// storageFlags returns flags for the durable store and memory defaults
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-url",
			Usage:       "Redis connection URL",
			Value:       "redis://localhost:6379",
			Sources:     cli.EnvVars("RECALL_REDIS_URL"),
			Destination: &cfg.redisURL,
		},
		&cli.DurationFlag{
			Name:        "redis-timeout",
			Usage:       "Deadline of each Redis call before falling back to in-memory storage",
			Value:       2 * time.Second,
			Sources:     cli.EnvVars("RECALL_REDIS_TIMEOUT"),
			Destination: &cfg.redisTimeout,
		},
		&cli.BoolFlag{
			Name:        "atomic-write",
			Usage:       "Write record and recency index in one Redis transaction",
			Sources:     cli.EnvVars("RECALL_ATOMIC_WRITE"),
			Destination: &cfg.atomicWrite,
		},
		&cli.StringFlag{
			Name:        "default-user",
			Usage:       "User ID applied when a caller omits one",
			Value:       string(model.DefaultUserID),
			Sources:     cli.EnvVars("RECALL_DEFAULT_USER"),
			Destination: &cfg.defaultUser,
		},
	}
}

// loggingFlags returns flags for logger configuration
func loggingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECALL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("RECALL_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// newLogger builds the logger and attaches it to ctx
func (cfg *config) newLogger(ctx context.Context) (context.Context, error) {
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithFormat(cfg.logLevel, format, nil)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// newUseCase creates the memory usecase over Redis with an in-memory fallback
func (cfg *config) newUseCase() (*memory.UseCase, error) {
	if cfg.redisURL == "" {
		return nil, goerr.New("redis-url is required")
	}

	opts := []repository.RedisOption{
		repository.WithTimeout(cfg.redisTimeout),
	}
	if cfg.atomicWrite {
		opts = append(opts, repository.WithAtomicWrite())
	}

	repo, err := repository.NewRedis(cfg.redisURL, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}

	return memory.New(repo, repository.NewFallback(),
		memory.WithDefaultUser(model.UserID(cfg.defaultUser)),
	), nil
}

// newRegistry creates the tool registry serving uc
func newRegistry(uc *memory.UseCase) *tool.Registry {
	return tool.New(memorytool.Tools(uc)...)
}
