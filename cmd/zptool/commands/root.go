// Package commands wires the CLI subcommands to the application
// components. Each command builds only what it needs.
package commands

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/accept"
	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/docstore"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/reporter"
	"go-zhipin-automation/internal/store"
)

var configPath string

// RootCmd is the base command.
var RootCmd = &cobra.Command{
	Use:   "zptool",
	Short: "zptool crawls job postings and automates outreach",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the YAML config file")

	RootCmd.AddCommand(GetCrawlCmd())
	RootCmd.AddCommand(GetGreetCmd())
	RootCmd.AddCommand(GetRotateCmd())
	RootCmd.AddCommand(GetMaskCompanyCmd())
	RootCmd.AddCommand(GetRelationsCmd())
	RootCmd.AddCommand(GetMigrateCmd())
}

// app bundles the store-side components every command needs.
type app struct {
	cfg      *config.Config
	jobs     *store.JobRepository
	masks    *store.MaskCompanyRepository
	blocked  *store.UserBlackRepository
	engine   *accept.Engine
	reporter *reporter.TelegramReporter
}

func newApp() (*app, error) {
	cfg := config.LoadFile(configPath)

	db, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		return nil, err
	}

	cache := store.NewMemoryCache()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warnf("Invalid REDIS_URL, using in-process cache")
		} else {
			cache = store.NewRedisCache(redis.NewClient(opt))
		}
	}

	jobs := store.NewJobRepository(db, cache)
	masks := store.NewMaskCompanyRepository(db)
	blocked := store.NewUserBlackRepository(db)

	rep, err := reporter.NewTelegramReporter(cfg)
	if err != nil {
		logger.WithError(err).Warnf("Telegram reporting disabled")
		rep = nil
	}

	return &app{
		cfg:      cfg,
		jobs:     jobs,
		masks:    masks,
		blocked:  blocked,
		engine:   accept.NewEngine(jobs, masks, blocked, cache),
		reporter: rep,
	}, nil
}

func (a *app) openDocstore(ctx context.Context) (*docstore.Store, error) {
	docs, err := docstore.Connect(ctx, a.cfg.DocstoreURL)
	if err != nil {
		return nil, err
	}
	if err := docs.Migrate(ctx); err != nil {
		docs.Close()
		return nil, err
	}
	return docs, nil
}
