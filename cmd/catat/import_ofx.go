package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/catat/internal/cli"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX bank statements",
		Long: `Import transactions from OFX or QFX files exported from internet banking
into a user's ledger. Rows already imported are skipped, so the same
statement can be imported again safely.

Examples:
  # Import a single statement
  catat import-ofx --phone 6281234567890 ~/Downloads/bca_maret.ofx

  # Import every statement in a directory
  catat import-ofx --phone 6281234567890 ~/Downloads/*.ofx

  # Preview without saving
  catat import-ofx --phone 6281234567890 --dry-run ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().String("phone", "", "phone number of the user to import for (required)")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

// importStats accumulates per-run totals.
type importStats struct {
	files    int
	failed   int
	parsed   int
	inserted int
	income   decimal.Decimal
	expenses decimal.Decimal
}

func (s *importStats) add(transactions []model.Transaction) {
	s.parsed += len(transactions)
	for i := range transactions {
		if transactions[i].Type == model.TypeIncome {
			s.income = s.income.Add(transactions[i].Amount)
		} else {
			s.expenses = s.expenses.Add(transactions[i].Amount)
		}
	}
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	phone, _ := cmd.Flags().GetString("phone")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Statements imported so far are kept. Re-run to continue; saved rows are skipped.")

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, phone)
	if err != nil {
		return err
	}

	slog.Info("Importing OFX files",
		"file_count", len(files),
		"user_id", user.ID,
		"dry_run", dryRun)

	bar := newImportProgressBar(out, len(files))
	parser := ofx.NewParser()
	stats := &importStats{}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}

		transactions, err := parseStatement(ctx, parser, path, user.ID)
		if err != nil {
			stats.failed++
			common.LogError(err, "Failed to import statement", common.Fields{"file": path})
		} else {
			stats.files++
			stats.add(transactions)
			if !dryRun && len(transactions) > 0 {
				inserted, err := store.SaveImportedTransactions(ctx, transactions)
				if err != nil {
					return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
				}
				stats.inserted += inserted
			}
		}

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	printImportSummary(out, stats, dispatch.NewFormatter(cfg.Location()), dryRun)

	if interrupts.WasInterrupted() {
		return context.Canceled
	}
	if stats.files == 0 {
		return common.NewUserError("no statement could be imported", nil)
	}
	return nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", nil)
	}
	return files, nil
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path, userID string) ([]model.Transaction, error) {
	f, err := os.Open(filepath.Clean(path)) // #nosec G304 -- user-supplied statement path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return parser.ParseFile(ctx, f, userID)
}

func newImportProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func printImportSummary(w io.Writer, stats *importStats, format *dispatch.Formatter, dryRun bool) {
	saved := fmt.Sprintf("%d new, %d already imported", stats.inserted, stats.parsed-stats.inserted)
	if dryRun {
		saved = "dry run, nothing saved"
	}

	summary := fmt.Sprintf("  • Files imported: %d\n", stats.files) +
		fmt.Sprintf("  • Files failed: %d\n", stats.failed) +
		fmt.Sprintf("  • Transactions: %d (%s)\n", stats.parsed, saved) +
		fmt.Sprintf("  • Income: %s\n", format.Currency(stats.income)) +
		fmt.Sprintf("  • Expenses: %s", format.Currency(stats.expenses))

	if _, err := fmt.Fprintln(w, cli.RenderBox("OFX Import", summary)); err != nil {
		slog.Warn("Failed to write import summary", "error", err)
	}
}
