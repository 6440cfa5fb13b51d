package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/wordduel/internal/ai"
	"github.com/example/wordduel/internal/bot"
	"github.com/example/wordduel/internal/catalog"
	"github.com/example/wordduel/internal/config"
	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/duel"
	"github.com/example/wordduel/internal/history"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
	"github.com/example/wordduel/internal/review"
	"github.com/example/wordduel/internal/scheduler"
	"github.com/example/wordduel/internal/server"
	"github.com/example/wordduel/internal/xp"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "wordduel",
		Short:         "Vocabulary drills and duels over Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load")
	root.AddCommand(runCmd(), importCmd(), sweepCmd(), migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds what every command needs
type app struct {
	cfg    *config.Config
	db     *database.DB
	logger *slog.Logger
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, db: db, logger: logger}, nil
}

func (a *app) services() (*catalog.Catalog, *history.Tracker, *xp.Service, error) {
	gen, err := ai.NewGenerator(a.cfg, a.db, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	cat := catalog.New(a.db, gen, a.cfg.GenerationTimeout, a.logger)
	return cat, history.NewTracker(a.db), xp.NewService(a.db, a.cfg.XP, a.logger), nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot, the scheduler and the ops server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.db.Close()

			if a.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
			}

			cat, tracker, rewards, err := a.services()
			if err != nil {
				return err
			}
			reviews := review.NewService(a.db, cat, catalog.NewSelector(a.db), tracker, rewards, a.logger)
			duels := duel.NewService(a.db, cat, tracker, rewards, duel.OptionsFrom(a.cfg), a.logger)

			botConfig := bot.DefaultConfig()
			botConfig.AdminUserIDs = a.cfg.AdminUserIDs
			b, err := bot.New(a.cfg.TelegramToken, bot.Services{
				Review:   reviews,
				Duel:     duels,
				Users:    database.NewUserRepository(a.db),
				Importer: catalog.NewImporter(a.db),
			}, botConfig, a.logger)
			if err != nil {
				return err
			}

			sched := scheduler.New(a.db, duels, b, scheduler.Options{
				SweepInterval: a.cfg.SweepInterval,
				ReminderHour:  a.cfg.ReminderHour,
				UTCOffset:     a.cfg.XP.StreakUTCOffset,
			}, a.logger)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.MustRegister(reg)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return b.Run(ctx) })
			if a.cfg.OpsAddr != "" {
				ops := server.New(a.cfg.OpsAddr, a.db, reg, a.logger)
				g.Go(func() error { return ops.Run(ctx) })
			}

			a.logger.Info("bot started, press Ctrl+C to stop")
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			a.logger.Info("bot stopped")
			return err
		},
	}
}

func importCmd() *cobra.Command {
	cfg := catalog.DefaultImportConfig()
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import words from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.db.Close()

			cfg.FilePath = args[0]
			result, err := catalog.NewImporter(a.db).ImportFile(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				a.logger.Warn("row skipped", "reason", e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rows\n", result.Imported, result.TotalProcessed)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.SheetName, "sheet", cfg.SheetName, "worksheet to read from an .xlsx file")
	cmd.Flags().IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first data row (1-based)")
	cmd.Flags().IntVar(&cfg.SortOffset, "sort-offset", cfg.SortOffset, "added to row numbers to order the catalog")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale duels once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.db.Close()

			cat, tracker, rewards, err := a.services()
			if err != nil {
				return err
			}
			res, err := duel.NewService(a.db, cat, tracker, rewards, duel.OptionsFrom(a.cfg), a.logger).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d, deleted %d\n", res.Expired, res.Deleted)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Connect applies the schema
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.db.Close()
			a.logger.Info("schema is up to date")
			return nil
		},
	}
}
