package main

import (
	"context"

	"github.com/dagbolade/echoguard/internal/audit"
	"github.com/dagbolade/echoguard/internal/policy"
	"github.com/dagbolade/echoguard/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the access log backend.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := server.LoadConfig()
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath, _ = cmd.Flags().GetString("db")
		}
		if cmd.Flags().Changed("rules") {
			cfg.RulesFile, _ = cmd.Flags().GetString("rules")
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP port (env PORT)")
	serveCmd.Flags().String("db", "./db/echoguard.db", "SQLite database path (env DB_PATH)")
	serveCmd.Flags().String("rules", "", "YAML rules file, reloaded on change (env RULES_FILE)")
}

func runServe(ctx context.Context, cfg server.Config) error {
	log.Info().Msg("starting EchoGuard backend")

	store, err := initAuditStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audit store")
		}
	}()

	engine, err := initPolicyEngine(store, cfg.RulesFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close policy engine")
		}
	}()

	srv := server.New(cfg, store, engine)
	if err := runServer(ctx, srv); err != nil {
		return err
	}

	log.Info().Msg("backend stopped successfully")
	return nil
}

func initAuditStore(dbPath string) (*audit.SQLiteStore, error) {
	log.Info().Str("path", dbPath).Msg("initializing audit store")

	store, err := audit.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("audit store initialized")
	return store, nil
}

func initPolicyEngine(counter policy.RecentCounter, rulesFile string) (*policy.Engine, error) {
	if rulesFile == "" {
		log.Info().Msg("initializing policy engine with default rules")
	} else {
		log.Info().Str("file", rulesFile).Msg("initializing policy engine")
	}

	engine, err := policy.NewEngine(counter, rulesFile)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("policy engine initialized")
	return engine, nil
}

func runServer(ctx context.Context, srv *server.Server) error {
	errChan := make(chan error, 1)

	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
