package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/engine"
	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/tui"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from your terminal",
		Long: `Open an interactive chat that sends each line to the bot as if it came
from the given WhatsApp number. Transactions recorded here are stored
with source "console".

Examples:
  catat chat --phone 6281234567890`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().String("phone", "", "phone number to chat as (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	phone, _ := cmd.Flags().GetString("phone")

	sender := identity.NormalizeAddress(phone)
	if sender == "" {
		return common.NewUserError(fmt.Sprintf("%q is not a phone number", phone), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
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

	// Log lines would tear the alternate screen.
	if err := common.SetupLoggerTo(io.Discard, slog.LevelError, cfg.Logging.Format); err != nil {
		return err
	}

	replies := tui.NewReplier(16)
	bot := engine.New(
		newResolver(cfg, store),
		classifier,
		newDispatcher(cfg, store),
		replies,
		engine.WithSource(model.SourceConsole),
	)

	return tui.Run(ctx, tui.Config{
		Handler: bot,
		Replies: replies,
		Sender:  sender,
	})
}
