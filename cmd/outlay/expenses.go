package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"outlay/internal/cli"
)

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <amount> <category> [description...]",
		Short: "Record a new expense",
		Long: `Record an expense under a category. An unknown category is created on
the fly; a soft-deleted category is brought back.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			category := args[1]
			description := strings.Join(args[2:], " ")

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			expense, err := l.AddExpense(ctx, amount, category, description)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %.2f under %q (id: %s)", expense.Amount, category, expense.ID)))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete a single expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := l.DeleteExpense(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Expense deleted"))
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show expenses grouped by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := l.CategoriesWithExpenses(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println(cli.InfoStyle.Render("No expenses recorded yet. Use 'outlay add' to record one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			for _, name := range names {
				expenses, err := l.ExpensesFor(ctx, name)
				if err != nil {
					return err
				}
				total, err := l.TotalForCategory(ctx, name)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s\t\t%s\n",
					cli.HeaderStyle.Render(name),
					cli.HeaderStyle.Render(fmt.Sprintf("%.2f", total)))
				for _, e := range expenses {
					desc := e.Description
					if desc == "" {
						desc = cli.SubtleStyle.Render("(no description)")
					}
					fmt.Fprintf(w, "  %s\t%s\t%.2f\n", e.Date.Format("2006-01-02"), desc, e.Amount)
				}
			}

			return nil
		},
	}
}

func totalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total <category>",
		Short: "Show the total spent in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			total, err := l.TotalForCategory(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s: %.2f\n", args[0], total)
			return nil
		},
	}
}
