package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/cli"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultActivationDays = 30

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage who may talk to the bot",
		Long: `Register phone numbers and manage their activations. A sender can record
transactions only while their account is active and their activation has
not expired.`,
	}

	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersActivateCmd())
	cmd.AddCommand(usersDeactivateCmd())
	cmd.AddCommand(usersListCmd())

	return cmd
}

func usersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a phone number",
		Example: `  catat users add --phone 6281234567890 --name budi
  catat users add --phone "+62 81234567890" --days 90`,
		Args: cobra.NoArgs,
		RunE: runUsersAdd,
	}

	cmd.Flags().String("phone", "", "phone number to register (required)")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().Int("days", defaultActivationDays, "activation length in days")
	cmd.Flags().String("code", "", "activation code (default: generated)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runUsersAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	phone, _ := cmd.Flags().GetString("phone")
	name, _ := cmd.Flags().GetString("name")
	days, _ := cmd.Flags().GetInt("days")
	code, _ := cmd.Flags().GetString("code")

	normalized := identity.NormalizeAddress(phone)
	if normalized == "" {
		return common.NewUserError(fmt.Sprintf("%q is not a phone number", phone), nil)
	}
	if days <= 0 {
		return common.NewUserError("--days must be positive", nil)
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

	user := &model.User{
		ID:          uuid.NewString(),
		Username:    name,
		PhoneNumber: normalized,
		IsActive:    true,
		Activation:  newActivation(code, days),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return common.NewUserError(fmt.Sprintf("%s is already registered", normalized), err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Registered %s, activation %s valid until %s",
		normalized, user.Activation.Code, user.Activation.ExpiresAt.In(cfg.Location()).Format("2006-01-02 15:04"))))
	return nil
}

func usersActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Reactivate an account and renew its activation",
		Args:  cobra.NoArgs,
		RunE:  runUsersActivate,
	}

	cmd.Flags().String("phone", "", "registered phone number (required)")
	cmd.Flags().Int("days", defaultActivationDays, "activation length in days")
	cmd.Flags().String("code", "", "activation code (default: generated)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runUsersActivate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	phone, _ := cmd.Flags().GetString("phone")
	days, _ := cmd.Flags().GetInt("days")
	code, _ := cmd.Flags().GetString("code")

	if days <= 0 {
		return common.NewUserError("--days must be positive", nil)
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

	activation := newActivation(code, days)
	if err := store.SetUserActive(ctx, user.ID, true); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}
	if err := store.SetActivation(ctx, user.ID, *activation); err != nil {
		return fmt.Errorf("failed to renew activation: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Activated %s until %s",
		user.PhoneNumber, activation.ExpiresAt.In(cfg.Location()).Format("2006-01-02 15:04"))))
	return nil
}

func usersDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Stop an account from using the bot",
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
			if err := store.SetUserActive(ctx, user.ID, false); err != nil {
				return fmt.Errorf("failed to deactivate user: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf("Deactivated %s", user.PhoneNumber)))
			return nil
		},
	}

	cmd.Flags().String("phone", "", "registered phone number (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			users, err := store.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No users registered yet. Add one with: catat users add --phone <number>"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("%d users", len(users))))
			fmt.Fprintln(cmd.OutOrStdout(), renderUsers(users, time.Now(), cfg.Location()))
			return nil
		},
	}
}

func renderUsers(users []model.User, now time.Time, loc *time.Location) string {
	table := make([][]string, 0, len(users))
	for _, u := range users {
		expires, status := "-", "no activation"
		if u.Activation != nil {
			expires = u.Activation.ExpiresAt.In(loc).Format("2006-01-02")
			status = "expired"
			if u.Activation.Valid(now) {
				status = "valid"
			}
		}
		table = append(table, []string{u.PhoneNumber, u.Username, yesNo(u.IsActive), status, expires})
	}
	return cli.RenderTable([]string{"Phone", "Name", "Active", "Activation", "Expires"}, table)
}

func newActivation(code string, days int) *model.Activation {
	code = strings.TrimSpace(code)
	if code == "" {
		code = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}
	return &model.Activation{
		Code:      code,
		IsActive:  true,
		ExpiresAt: time.Now().Add(time.Duration(days) * 24 * time.Hour).UTC(),
	}
}
