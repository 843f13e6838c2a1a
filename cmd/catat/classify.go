package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Show how the bot understands a message",
		Long: `Run text through the intent classifier and print the intent, the
confidence and any extracted entities. Nothing is recorded.

Without arguments, classify reads one message per line from stdin.

Examples:
  catat classify "catat pengeluaran 50rb untuk makan siang"
  echo "laporan keuangan" | catat classify --json`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("json", false, "print results as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return printClassification(out, classifier.Classify(strings.Join(args, " ")), asJSON)
	}

	reader := cli.NewLineReader(cmd.InOrStdin())
	for {
		line, err := reader.ReadLine(cmd.Context())
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			continue
		}
		if err := printClassification(out, classifier.Classify(line), asJSON); err != nil {
			return err
		}
	}
}

func printClassification(w io.Writer, result classification.Result, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(result)
	}

	rows := [][]string{
		{"intent", string(result.Intent)},
		{"confidence", fmt.Sprintf("%.3f", result.Confidence)},
		{"resolved by", string(result.ResolvedBy)},
		{"normalized", result.Normalized},
	}
	for _, e := range result.Entities {
		rows = append(rows, []string{string(e.Type), e.Value})
	}

	_, err := fmt.Fprintln(w, cli.RenderBox(result.Utterance, cli.RenderTable([]string{"field", "value"}, rows)))
	return err
}
