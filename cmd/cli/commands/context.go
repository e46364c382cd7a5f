package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/clients/gmailclient"
	"github.com/jakechorley/shift-roster/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-roster/pkg/clients/solverclient"
	"github.com/jakechorley/shift-roster/pkg/core/dates"
	"github.com/jakechorley/shift-roster/pkg/core/services"
	"github.com/jakechorley/shift-roster/pkg/db"
	"github.com/jakechorley/shift-roster/pkg/postgres"
	"github.com/jakechorley/shift-roster/pkg/utils/logging"
)

// AppContext holds the application dependencies shared across all commands.
// Google clients are created on first use so that commands which never touch
// Sheets or Gmail do not need OAuth.
type AppContext struct {
	Env      string
	LogDir   string
	Cfg      *config.Config
	Database db.Database
	Solver   *solverclient.Client
	Logger   *zap.Logger
	Ctx      context.Context

	pg           *postgres.DB
	oauthCfg     *config.OAuthClientConfig
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
}

// InitApp sets up the logger, config, store and solver client
func (app *AppContext) InitApp() error {
	var err error
	if app.Ctx == nil {
		app.Ctx = context.Background()
	}

	app.Logger, _, err = logging.InitLogger(app.Env, app.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", app.Env))

	app.Cfg, err = config.LoadWithEnv(app.Env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded", zap.String("store", app.Cfg.Store))

	switch app.Cfg.Store {
	case config.StorePostgres:
		app.Logger.Info("Connecting to database")
		app.pg, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Database = app.pg
	default:
		app.Logger.Warn("Using in-memory store, data is lost on exit")
		app.Database = db.NewMemory()
	}

	app.Solver, err = solverclient.NewClient(app.Cfg.SolverClientConfig(), app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create solver client: %w", err)
	}

	return nil
}

// Close releases the database pool and flushes the logger
func (app *AppContext) Close() {
	if app.pg != nil {
		app.pg.Close()
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}

// Postgres returns the postgres store, or an error when another store is configured
func (app *AppContext) Postgres() (*postgres.DB, error) {
	if app.pg == nil {
		return nil, fmt.Errorf("store %q has no migrations", app.Cfg.Store)
	}
	return app.pg, nil
}

// SheetsClient returns the Sheets client, authenticating on first use
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}

	if app.oauthCfg == nil {
		oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		app.oauthCfg = oauthCfg
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, app.oauthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheetsClient = client
	return client, nil
}

// Notifier returns the Gmail client when gmailSender is configured and nil
// otherwise
func (app *AppContext) Notifier() (services.Notifier, error) {
	if app.Cfg.GmailSender == "" {
		return nil, nil
	}
	if app.gmailClient != nil {
		return app.gmailClient, nil
	}

	sheets, err := app.SheetsClient()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing gmail client")
	client, err := gmailclient.NewClient(app.Ctx, app.oauthCfg, sheets.Token(), app.Cfg.GmailSender)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.gmailClient = client
	return client, nil
}

// defaultRange fills in a missing start with today and a missing end with start+6
func (app *AppContext) defaultRange(start, end string) (string, string, error) {
	if start == "" {
		loc, err := app.Cfg.Location()
		if err != nil {
			return "", "", err
		}
		start = dates.Today(loc)
	}
	if end == "" {
		var err error
		end, err = dates.AddDays(start, 6)
		if err != nil {
			return "", "", fmt.Errorf("invalid start date: %w", err)
		}
	}
	return start, end, nil
}
