package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/codebreaker/internal/board"
	"github.com/robalobadob/codebreaker/internal/config"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/httpserver"
	"github.com/robalobadob/codebreaker/internal/play"
	"github.com/robalobadob/codebreaker/internal/results"
	"github.com/robalobadob/codebreaker/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("exited")
		os.Exit(1)
	}
}

// flags override the matching environment variables when set.
type flags struct {
	port     string
	dbPath   string
	logLevel string
	policy   string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "codebreaker",
		Short:         "Code Breaker game server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "scoreboard database path (overrides DB_PATH)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	serve := newServeCmd(&f)
	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(&f))
	root.AddCommand(newLeaderboardCmd(&f))

	// bare invocation serves, like the old single-purpose binary
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("policy") {
		if cfg.Policy, err = board.ParsePolicy(f.policy); err != nil {
			return cfg, err
		}
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.ConsoleLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

// openResults opens and migrates the scoreboard; nil when disabled.
func openResults(cfg config.Config) (*sql.DB, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	db, err := results.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := results.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newServeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.DefaultJWTSecret() {
				log.Warn().Msg("JWT_SECRET not set; using development secret")
			}

			db, err := openResults(cfg)
			if err != nil {
				return err
			}
			var (
				recorder play.Recorder
				scores   httpserver.Scoreboard
			)
			if db != nil {
				defer db.Close()
				rs := results.NewStore(db)
				recorder, scores = rs, rs
				log.Info().Str("path", cfg.DBPath).Msg("scoreboard enabled")
			} else {
				log.Info().Msg("scoreboard disabled")
			}

			games := play.NewManager(store.NewMemoryStore(), play.Options{
				Game: game.Options{
					Capacity: cfg.Capacity,
					Policy:   cfg.Policy,
					Round:    cfg.Round,
				},
				TraceDelay: cfg.TraceDelay,
				Recorder:   recorder,
			})
			defer games.Close()

			srv := httpserver.New(games, scores, httpserver.Config{
				ClientOrigin:     cfg.ClientOrigin,
				JWTSecret:        cfg.JWTSecret,
				TokenTTL:         cfg.TokenTTL,
				SecureCookies:    cfg.SecureCookies,
				AllowFixedSecret: cfg.AllowFixedSecret,
				RatePerSecond:    cfg.RatePerSecond,
				RateBurst:        cfg.RateBurst,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("port", cfg.Port).
				Str("policy", string(cfg.Policy)).
				Dur("round", cfg.Round).
				Msg("starting codebreaker server")
			if err := srv.Serve(ctx, ":"+cfg.Port); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&f.port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "insert policy: shift|overwrite|splice (overrides INSERT_POLICY)")
	return cmd
}

func newMigrateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the scoreboard database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("no database configured (set DB_PATH or --db)")
			}
			db, err := openResults(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info().Str("path", cfg.DBPath).Msg("migrations applied")
			return nil
		},
	}
}

func newLeaderboardCmd(f *flags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the fastest won rounds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("no database configured (set DB_PATH or --db)")
			}
			db, err := openResults(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			rs := results.NewStore(db)
			rows, err := rs.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			total, err := rs.Count(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "#\tPLAYER\tSECONDS\tSEARCHES\tMOVES\tPOLICY\tWHEN")
			for i, r := range rows {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%.1f\t%d\t%d\t%s\t%s\n",
					i+1, r.Player, float64(r.ElapsedMs)/1000, r.Searches, r.Moves, r.Policy,
					r.CreatedAt.Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d results\n", len(rows), total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows")
	return cmd
}
