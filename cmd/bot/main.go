package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"form-bronze-bot/internal/adapters/exporter"
	"form-bronze-bot/internal/bot"
	"form-bronze-bot/internal/broadcast"
	"form-bronze-bot/internal/log"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/pkg/config"
	"form-bronze-bot/internal/pkg/term"
	"form-bronze-bot/internal/server"
	"form-bronze-bot/internal/state"
	"form-bronze-bot/internal/storage/sqlite"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера с маскировкой токенов, e-mail и телефонов
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(log.NewTGBotAPIAdapter(logger)); err != nil {
		return fmt.Errorf("set tgbotapi logger: %w", err)
	}

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Хранилища
	repo, err := sqlite.Open(ctx, cfg.Storage.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	states := state.NewMemoryStore(state.WithTTL(cfg.State.TTL))
	states.StartCleanupTicker(ctx, cfg.State.CleanupInterval)

	// 5. Транспорт Telegram
	client, err := telegram.NewClient(cfg.Bot.Token,
		telegram.WithLogger(logger),
		telegram.WithRetryPolicy(telegram.NewRetryPolicy(
			telegram.WithNetworkAttempts(cfg.Retry.NetworkAttempts),
			telegram.WithBackoff(cfg.Retry.InitialBackoff, cfg.Retry.Multiplier),
			telegram.WithRetryLogger(logger),
		)),
	)
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}
	slog.Info("Authorized in Telegram", "username", client.Username())

	// 6. Движок экранов, рассылки и сценарии
	engine := navigation.NewEngine(client,
		navigation.WithCaptionLimit(cfg.Bot.CaptionLimit),
		navigation.WithDefaultFormat(navigation.TextFormat(cfg.Bot.ParseMode)),
		navigation.WithLogger(logger),
	)

	broadcaster := broadcast.NewService(client, repo,
		broadcast.WithConcurrency(cfg.Broadcast.Concurrency),
		broadcast.WithJobTTL(cfg.Broadcast.JobTTL),
		broadcast.WithLogger(logger),
	)
	broadcaster.Jobs().StartCleanupTicker(ctx, cfg.State.CleanupInterval)

	b := bot.New(bot.Deps{
		Engine:      engine,
		Repo:        repo,
		States:      states,
		Messenger:   client,
		Broadcaster: broadcaster,
		Exporter:    exporter.NewExcelExporter(),
	},
		bot.WithAdmins(cfg.Bot.AdminIDs),
		bot.WithMedia(cfg.Media),
		bot.WithLogger(logger.With("component", "bot")),
	)

	r := router.New(client, router.WithSteps(states), router.WithLogger(logger))
	b.Register(r)
	// Ошибка в таблице экранов обнаруживается до приёма первого события.
	if err := engine.ValidateRoutes(); err != nil {
		return fmt.Errorf("invalid screen routes: %w", err)
	}

	dispatcher := router.NewDispatcher(r.Handle,
		router.WithHandlerTimeout(cfg.HandlerTimeout()),
		router.WithDispatcherLogger(logger),
	)

	// 7. Запуск: long polling и служебный HTTP-сервер
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Bot started", "admins", len(cfg.Bot.AdminIDs))
		dispatcher.Run(gctx, client.Updates(gctx, cfg.Bot.PollingTimeoutSeconds))
		return nil
	})
	if cfg.Server.Enabled {
		srv := server.New(cfg, repo, broadcaster.Jobs(), logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	err = g.Wait()
	slog.Info("Shutting down, waiting for broadcasts to finish...")
	broadcaster.Wait()
	if err != nil {
		return err
	}
	slog.Info("Bot stopped gracefully")
	return nil
}

// newLogger строит slog-логгер по настройкам: уровень, формат и маскировка персональных данных.
func newLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch term.LogFormat(cfg.Format, term.IsTerminal(os.Stdout)) {
	case term.FormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return log.NewMaskedLogger(handler)
}
