package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Config holds what the console chat needs to run.
type Config struct {
	Handler MessageHandler
	Replies *Replier
	Sender  string
	Options []tea.ProgramOption
}

// Run starts the chat and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Handler == nil {
		return fmt.Errorf("message handler is required")
	}
	if cfg.Replies == nil {
		return fmt.Errorf("replier is required")
	}
	if cfg.Sender == "" {
		return fmt.Errorf("sender address is required")
	}
	defer cfg.Replies.Close()

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, cfg.Options...)
	p := tea.NewProgram(NewModel(ctx, cfg.Handler, cfg.Replies, cfg.Sender), opts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console chat: %w", err)
	}
	return nil
}
