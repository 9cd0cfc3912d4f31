// ABOUTME: Wires configuration, logging and the editor collaborators for every command
// ABOUTME: Local SQLite or remote HTTP backend, optional Redis company cache, optional Charm drafts
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/harperreed/contactdesk/cache"
	"github.com/harperreed/contactdesk/charm"
	"github.com/harperreed/contactdesk/config"
	"github.com/harperreed/contactdesk/db"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/logging"
	"github.com/harperreed/contactdesk/remote"
	"github.com/harperreed/contactdesk/viz"
	"go.uber.org/zap"
)

var errLocalOnly = errors.New("this command needs the local database; unset remote.base_url")

type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db     *sql.DB
	dir    *db.Directory
	remote *remote.Client
	redis  *redis.Client

	deps      editor.Deps
	source    viz.Source
	companies editor.CompanyDirectory

	charm  *charm.Client
	drafts *charm.DraftStore
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DB.Path = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp builds the collaborators described by the configuration. Failures
// of optional pieces (Redis, Charm) are logged and the piece is skipped.
func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, "contactdesk")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.Remote.BaseURL != "" {
		a.remote = remote.NewClient(remote.Options{
			BaseURL: cfg.Remote.BaseURL,
			Token:   cfg.Remote.Token,
			Timeout: cfg.Remote.Timeout,
			Retries: cfg.Remote.Retries,
		}, logger.Named("remote"))
		a.deps = editor.Deps{Companies: a.remote, CaseRoles: a.remote, Duplicates: a.remote, Contacts: a.remote}
		a.source = a.remote
		a.companies = a.remote
		logger.Debug("using remote backend", zap.String("base_url", cfg.Remote.BaseURL))
	} else {
		database, err := db.OpenDatabase(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = database
		a.dir = db.NewDirectory(database)
		a.deps = editor.Deps{Companies: a.dir, CaseRoles: a.dir, Duplicates: a.dir, Contacts: a.dir}
		a.source = a.dir
		a.companies = a.dir
		logger.Debug("using local database", zap.String("path", cfg.DB.Path))
	}

	if cfg.Cache.RedisAddr != "" {
		rdb, err := cache.Dial(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			logger.Warn("company cache disabled", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		} else {
			a.redis = rdb
			a.companies = cache.NewCompanyCache(a.companies, rdb, cfg.Cache.TTL, logger.Named("cache"))
			a.deps.Companies = a.companies
		}
	}

	if cfg.Charm.Enabled {
		client, err := charm.NewClient(&charm.Config{Host: cfg.Charm.Host, AutoSync: cfg.Charm.AutoSync})
		if err != nil {
			logger.Warn("draft storage disabled", zap.Error(err))
		} else {
			a.charm = client
			a.drafts = charm.NewDraftStore(client)
		}
	}

	return a, nil
}

func (a *app) requireLocal() error {
	if a.db == nil {
		return errLocalOnly
	}
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}
