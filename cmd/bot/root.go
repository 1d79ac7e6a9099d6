package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/config"
	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/ledger"
	"github.com/Spok95/class-points-bot/internal/logging"
	"github.com/Spok95/class-points-bot/internal/observability"
)

var release = "dev"

var rootCmd = &cobra.Command{
	Use:          "class-points",
	Short:        "Classroom points ledger with a reviewer bot",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
			fmt.Fprintf(os.Stderr, "не удалось загрузить %s: %v\n", envFile, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to the .env file")
}

// runtime: общее окружение команд.
type runtime struct {
	cfg   *config.Config
	log   *logging.Log
	db    *sql.DB
	svc   *ledger.Service
	flush func()
}

func (r *runtime) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
	r.flush()
	r.log.Closer()
}

// bootstrap: конфиг, логгер, Sentry, база. migrate применяет миграции до старта.
func bootstrap(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry disabled", zap.Error(err))
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		flush()
		lg.Closer()
		return nil, fmt.Errorf("db: %w", err)
	}
	rt := &runtime{cfg: cfg, log: lg, db: database, flush: flush}

	if migrate {
		if err := db.Migrate(ctx, database); err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if v, err := db.MigrationVersion(ctx, database); err == nil {
			lg.Base.Info("schema ready", zap.Int64("version", v))
		}
	}

	rt.svc = ledger.New(database, lg.Component("ledger"), cfg.Location)
	return rt, nil
}
