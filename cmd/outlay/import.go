package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"outlay/internal/cli"
	"outlay/internal/ledger"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import expenses from a CSV file",
		Long: `Import expenses from a CSV file with one expense per row:

    amount,category,description

A header row starting with "amount" is skipped. Unknown categories are
created as the rows referencing them are imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			imported, err := runImport(ctx, l, args[0], os.Stderr)
			if err != nil {
				return err
			}
			if imported == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing to import."))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d expenses", imported)))
			return nil
		},
	}
}

// runImport reads the CSV file at path and records one expense per row,
// returning how many were imported. A bad row aborts the run; rows already
// imported stay recorded.
func runImport(ctx context.Context, l *ledger.Ledger, path string, progressOut io.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "amount") {
		records = records[1:]
	}
	if len(records) == 0 {
		return 0, nil
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Importing expenses"),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	imported := 0
	for i, record := range records {
		if len(record) < 2 {
			return imported, fmt.Errorf("row %d: expected at least amount and category, got %d fields", i+1, len(record))
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return imported, fmt.Errorf("row %d: invalid amount %q: %w", i+1, record[0], err)
		}

		description := ""
		if len(record) > 2 {
			description = strings.TrimSpace(record[2])
		}

		if _, err := l.AddExpense(ctx, amount, record[1], description); err != nil {
			return imported, fmt.Errorf("row %d: %w", i+1, err)
		}
		imported++
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return imported, nil
}
