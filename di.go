package main

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
)

// SetupDI initializes the dependency injection container
func SetupDI() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*Config, error) {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	})

	// Register ConfigStore
	do.Provide(injector, func(i do.Injector) (*ConfigStore, error) {
		cfg := do.MustInvoke[*Config](i)
		store, err := NewConfigStore(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config store at %s: %w", cfg.StoragePath, err)
		}
		return store, nil
	})

	// Register PendingQueue
	do.Provide(injector, func(i do.Injector) (*PendingQueue, error) {
		return NewPendingQueue(), nil
	})

	// Register SpamScorer
	do.Provide(injector, func(i do.Injector) (*SpamScorer, error) {
		return NewSpamScorer(), nil
	})

	// Register Classifier
	do.Provide(injector, func(i do.Injector) (*Classifier, error) {
		cfg := do.MustInvoke[*Config](i)
		return NewClassifier(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	})

	// Register ForwardLog
	do.Provide(injector, func(i do.Injector) (*ForwardLog, error) {
		return NewForwardLog(200), nil
	})

	// Register MessageMonitor
	do.Provide(injector, func(i do.Injector) (*MessageMonitor, error) {
		store := do.MustInvoke[*ConfigStore](i)
		scorer := do.MustInvoke[*SpamScorer](i)
		queue := do.MustInvoke[*PendingQueue](i)
		return NewMessageMonitor(store, scorer, queue), nil
	})

	// Register FeedbackProcessor
	do.Provide(injector, func(i do.Injector) (*FeedbackProcessor, error) {
		store := do.MustInvoke[*ConfigStore](i)
		classifier := do.MustInvoke[*Classifier](i)
		return NewFeedbackProcessor(store, classifier), nil
	})

	// Register BotHandler
	do.Provide(injector, func(i do.Injector) (*BotHandler, error) {
		cfg := do.MustInvoke[*Config](i)
		store := do.MustInvoke[*ConfigStore](i)
		queue := do.MustInvoke[*PendingQueue](i)
		classifier := do.MustInvoke[*Classifier](i)
		feedback := do.MustInvoke[*FeedbackProcessor](i)
		return NewBotHandler(cfg, store, queue, classifier, feedback), nil
	})

	// Register StatusServer
	do.Provide(injector, func(i do.Injector) (*StatusServer, error) {
		cfg := do.MustInvoke[*Config](i)
		queue := do.MustInvoke[*PendingQueue](i)
		classifier := do.MustInvoke[*Classifier](i)
		forwarded := do.MustInvoke[*ForwardLog](i)
		server := NewStatusServer(cfg, queue, classifier, forwarded)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs the handlers to be ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*Config](i)
		botHandler := do.MustInvoke[*BotHandler](i)
		monitor := do.MustInvoke[*MessageMonitor](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(botHandler.HandleUpdate(monitor)),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}

		botHandler.RegisterCommands(b)

		return b, nil
	})

	// Register Forwarder
	do.Provide(injector, func(i do.Injector) (*Forwarder, error) {
		queue := do.MustInvoke[*PendingQueue](i)
		store := do.MustInvoke[*ConfigStore](i)
		classifier := do.MustInvoke[*Classifier](i)
		forwarded := do.MustInvoke[*ForwardLog](i)
		b := do.MustInvoke[*bot.Bot](i)
		return NewForwarder(queue, store, classifier, NewTelegramPublisher(b), forwarded), nil
	})

	return injector, nil
}

// ShutdownDI gracefully shuts down all services
func ShutdownDI(injector do.Injector) error {
	if forwarder, err := do.Invoke[*Forwarder](injector); err == nil && forwarder != nil {
		forwarder.Stop()
	}
	return nil
}
