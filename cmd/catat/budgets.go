package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/cli"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage spending budgets",
		Long: `Define how much a user plans to spend per category. The bot reports
spending against every budget whose window covers today when the user
asks "lihat budget".`,
	}

	cmd.AddCommand(budgetsAddCmd())
	cmd.AddCommand(budgetsListCmd())

	return cmd
}

func budgetsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget",
		Example: `  catat budgets add --phone 6281234567890 --category makan --amount 1500000
  catat budgets add --phone 6281234567890 --category transport --amount 500000 --start 2024-03-01 --end 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: runBudgetsAdd,
	}

	cmd.Flags().String("phone", "", "phone number of the user (required)")
	cmd.Flags().String("category", "", "spending category (required)")
	cmd.Flags().String("amount", "", "budget amount in rupiah (required)")
	cmd.Flags().String("period", string(model.PeriodMonthly), "DAILY, WEEKLY, MONTHLY or YEARLY")
	cmd.Flags().String("start", "", "first day, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().String("end", "", "last day, YYYY-MM-DD (default: open-ended)")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runBudgetsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	phone, _ := cmd.Flags().GetString("phone")
	category, _ := cmd.Flags().GetString("category")
	amountStr, _ := cmd.Flags().GetString("amount")
	periodStr, _ := cmd.Flags().GetString("period")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")

	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil || !amount.IsPositive() {
		return common.NewUserError(fmt.Sprintf("invalid amount %q", amountStr), err)
	}
	period := model.BudgetPeriod(strings.ToUpper(periodStr))
	if !period.Valid() {
		return common.NewUserError(fmt.Sprintf("invalid period %q", periodStr), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc := cfg.Location()

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, phone)
	if err != nil {
		return err
	}

	budget := &model.Budget{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Category: strings.TrimSpace(category),
		Period:   period,
		Amount:   amount,
	}
	if startStr == "" {
		budget.StartDate = newDispatcher(cfg, store).MonthStart(time.Now())
	} else if budget.StartDate, err = parseDate(startStr, loc); err != nil {
		return err
	}
	if endStr != "" {
		end, err := parseDate(endStr, loc)
		if err != nil {
			return err
		}
		// Inclusive of the whole last day.
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		budget.EndDate = &end
	}

	if err := store.CreateBudget(ctx, budget); err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	format := dispatch.NewFormatter(loc)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget %s %s for %s from %s",
		budget.Category, format.Currency(budget.Amount), user.PhoneNumber, format.Date(budget.StartDate))))
	return nil
}

func budgetsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			phone, _ := cmd.Flags().GetString("phone")

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
			budgets, err := store.ListBudgets(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No budgets yet. Add one with: catat budgets add"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderBudgets(budgets, dispatch.NewFormatter(cfg.Location()), time.Now()))
			return nil
		},
	}

	cmd.Flags().String("phone", "", "phone number of the user (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func renderBudgets(budgets []model.Budget, format *dispatch.Formatter, now time.Time) string {
	rows := make([][]string, 0, len(budgets))
	for i := range budgets {
		b := &budgets[i]
		end := "-"
		if b.EndDate != nil {
			end = format.Date(*b.EndDate)
		}
		rows = append(rows, []string{
			b.Category,
			format.Currency(b.Amount),
			string(b.Period),
			format.Date(b.StartDate),
			end,
			yesNo(b.Covers(now)),
		})
	}
	return cli.RenderTable([]string{"Category", "Amount", "Period", "Start", "End", "Active"}, rows)
}
