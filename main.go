package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"regionchatbot/config"
	"regionchatbot/internal/handler"
	"regionchatbot/internal/repository"
	"regionchatbot/internal/service"
	"regionchatbot/pkg/database"
	"regionchatbot/pkg/i18n"
	"regionchatbot/pkg/logging"
	"regionchatbot/pkg/telegram"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.SlogLogger) error {
	logger.Info(ctx, "starting region chat bot", "env", cfg.AppEnv)

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx, logger); err != nil {
		return err
	}
	if cfg.MigrateOnly {
		logger.Info(ctx, "migrations applied, exiting")
		return nil
	}

	translator := i18n.NewI18n(cfg.DefaultLang)
	if err := translator.LoadLanguages(i18n.Embedded()); err != nil {
		return err
	}

	if err := tgbotapi.SetLogger(logger.StdLogger(slog.LevelWarn)); err != nil {
		return err
	}
	botClient, err := telegram.NewClient(telegram.ClientConfig{
		Token:       cfg.BotToken,
		PollTimeout: cfg.PollTimeout,
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "authorized", "bot", botClient.Username())

	userRepo := repository.NewUserRepository(db)
	matcher := service.NewMatchmaker(userRepo, logger.With("component", "matchmaker"))
	session := service.NewSessionController(userRepo, matcher, botClient, translator,
		logger.With("component", "session"), service.SessionConfig{
			MiniAppURL:  cfg.MiniAppURL,
			SendTimeout: cfg.SendTimeout,
		})
	admin := handler.NewAdminHandler(userRepo, botClient, translator, cfg, session)
	botHandler := handler.NewBotHandler(session, admin, botClient, translator, logger.With("component", "handler"))

	registerCommands(ctx, botClient, translator, logger)

	logger.Info(ctx, "polling for updates", "workers", cfg.Workers)
	handler.NewDispatcher(cfg.Workers, botHandler.HandleUpdate).Run(ctx, botClient.Updates(ctx))

	logger.Info(ctx, "shutting down")
	return nil
}

// registerCommands publishes the command list globally and once per
// shipped language.
func registerCommands(ctx context.Context, bot *telegram.Client, tr *i18n.I18nService, logger logging.Logger) {
	if err := bot.RegisterCommands("", handler.Commands(tr, "")); err != nil {
		logger.Warn(ctx, "failed to register commands", "error", err)
	}
	for _, lang := range tr.Languages() {
		if err := bot.RegisterCommands(lang, handler.Commands(tr, lang)); err != nil {
			logger.Warn(ctx, "failed to register commands", "lang", lang, "error", err)
		}
	}
}
