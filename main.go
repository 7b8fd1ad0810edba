package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/api"
	"medication-refill-tracker/internal/config"
	"medication-refill-tracker/internal/handlers"
	"medication-refill-tracker/internal/messages"
	"medication-refill-tracker/internal/metrics"
	"medication-refill-tracker/internal/reminders"
	"medication-refill-tracker/internal/scheduler"
	"medication-refill-tracker/internal/storage"
	"medication-refill-tracker/internal/storage/dynamo"
	"medication-refill-tracker/internal/tracker"
	"medication-refill-tracker/internal/utils"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medtracker",
		Short: "Medication refill tracker",
		Long: `Tracks medications, dose times, stock and expiry dates.

Every tick the collection is evaluated and due, missed, low-stock and
expiring medications are announced to the configured notification sink.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the reminder loop, the HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Print the caregiver summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return summary(cmd.Context())
		},
	})
	return cmd
}

func setup() (*config.Config, *zap.Logger) {
	cfg := config.Load()
	logger, err := config.NewLogger(cfg.AppEnv, cfg.LogLevel)
	utils.Must(err)
	return cfg, logger
}

func serve(ctx context.Context) error {
	cfg, logger := setup()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	sink, tgSink, bot := buildSink(ctx, cfg, logger)
	policy := reminders.NewPolicy(sink, cfg.DoseCooldown, logger, m)
	tr := tracker.New(store, policy, logger, m)
	if err := tr.Reload(ctx); err != nil {
		logger.Warn("initial load failed", zap.Error(err))
	}

	loc := cfg.Location()
	ticker := scheduler.New(cfg.TickInterval, logger)
	if err := ticker.Start(func(now time.Time) { tr.Tick(ctx, now.In(loc)) }); err != nil {
		return fmt.Errorf("start ticker: %w", err)
	}
	defer ticker.Stop()

	if bot != nil {
		h := handlers.NewHandler(bot, tr, tgSink, loc, logger)
		go h.Listen(ctx)
		defer bot.StopReceivingUpdates()
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(&api.Deps{Tracker: tr, Metrics: m, Loc: loc}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}

func summary(ctx context.Context) error {
	cfg, logger := setup()
	defer logger.Sync()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tr := tracker.New(store, nil, logger, nil)
	if err := tr.Reload(ctx); err != nil {
		return err
	}
	fmt.Print(tr.Summary(time.Now().In(cfg.Location())))
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (tracker.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DynamoCreateTable {
			if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTable, logger); err != nil {
				return nil, nil, err
			}
		}
		logger.Info("using dynamodb store", zap.String("table", cfg.DynamoTable))
		return dynamo.NewMedicationRepo(client, cfg.DynamoTable), func() {}, nil

	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.DBPath))
		return db, func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// buildSink picks the notification sink. Telegram also returns the bot so
// updates can be served; any setup failure falls back to the log sink.
func buildSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (reminders.Sink, *messages.TelegramSink, *tgbotapi.BotAPI) {
	fallback := messages.NewLogSink(logger)

	switch cfg.NotifyDriver {
	case config.NotifyTelegram:
		if cfg.TelegramToken == "" {
			logger.Warn("TELEGRAM_BOT_TOKEN not set, alerts go to the log")
			return fallback, nil, nil
		}
		bot, err := messages.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Warn("telegram bot not available", zap.Error(err))
			return fallback, nil, nil
		}
		logger.Info("authorized on telegram", zap.String("account", bot.Self.UserName))
		tg := messages.NewTelegramSink(bot, cfg.TelegramChatID)
		return tg, tg, bot

	case config.NotifySNS:
		client, err := messages.NewSNSClient(ctx, cfg)
		if err != nil {
			logger.Warn("sns not available", zap.Error(err))
			return fallback, nil, nil
		}
		return messages.NewSNSSink(client, cfg.SNSPhoneNumber), nil, nil
	}
	return fallback, nil, nil
}
