package main

import (
	"fmt"

	"github.com/Veraticus/catat/internal/common"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [summary|history|budget]",
		Short: "Print a report exactly as the bot would send it",
		Long: `Compute a report for a registered user and print the reply text the bot
would send on WhatsApp.

  summary   month-to-date income, expenses and balance (default)
  history   most recent transactions
  budget    spending against each active budget

Examples:
  catat report --phone 6281234567890
  catat report budget --phone 6281234567890`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"summary", "history", "budget"},
		RunE:      runReport,
	}

	cmd.Flags().String("phone", "", "phone number of the user (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	phone, _ := cmd.Flags().GetString("phone")

	kind := "summary"
	if len(args) == 1 {
		kind = args[0]
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

	user, err := lookupUser(ctx, store, phone)
	if err != nil {
		return err
	}

	dispatcher := newDispatcher(cfg, store)
	render := dispatcher.Renderer()

	var text string
	switch kind {
	case "summary":
		summary, err := dispatcher.ComputeSummary(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to compute summary: %w", err)
		}
		text = render.Summary(summary)
	case "history":
		history, err := dispatcher.History(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		text = render.History(history)
	case "budget":
		usage, err := dispatcher.BudgetStatus(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to compute budget status: %w", err)
		}
		text = render.Budgets(usage)
	default:
		return common.NewUserError(fmt.Sprintf("unknown report %q, expected summary, history or budget", kind), nil)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
