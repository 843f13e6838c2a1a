package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/engine"
	"github.com/Veraticus/catat/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WhatsApp webhook server",
		Long: `Start the HTTP server that receives WhatsApp messages from the bridge,
runs them through the bot, and sends replies back through the gateway.

The server reports ready on /readyz only after the database is migrated
and the intent classifier is trained.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireGateway(); err != nil {
		return common.NewUserError("set gateway.url (or CATAT_GATEWAY_URL) before serving", err)
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	classifier, err := newClassifier(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrClassifierNotTrained, err)
	}
	slog.Info("Intent classifier trained",
		"intents", len(classifier.Intents()),
		"vocabulary", classifier.VocabularySize())

	gateway, err := server.NewGateway(server.GatewayConfig{
		URL:         cfg.Gateway.URL,
		Token:       cfg.Gateway.Token,
		Timeout:     cfg.Gateway.Timeout,
		MaxAttempts: cfg.Gateway.MaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	bot := engine.New(
		newResolver(cfg, store),
		classifier,
		newDispatcher(cfg, store),
		gateway,
		engine.WithSource(cfg.Bot.Source),
	)

	srv := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		ReadTimeout: cfg.Server.ReadTimeout,
	}, bot, gateway)
	srv.MarkReady()

	slog.Info("🚀 Serving WhatsApp webhook",
		"addr", cfg.Server.Addr,
		"database", cfg.Database.Path,
		"timezone", cfg.Bot.Timezone)

	return srv.Run(ctx)
}
