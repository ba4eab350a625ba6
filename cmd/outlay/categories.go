package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"outlay/internal/cli"
	"outlay/internal/ledger"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
		Long:  `List, add, hide, and permanently delete expense categories.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(removeCategoryCmd())
	cmd.AddCommand(purgeCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var includeDeleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Long:  `Display active categories. With --all, soft-deleted ones are shown too.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := l.AllCategories(ctx, includeDeleted)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'outlay categories add' to create one."))
				return nil
			}

			active := make(map[string]bool, len(names))
			if includeDeleted {
				activeNames, err := l.CategoriesForPicker(ctx)
				if err != nil {
					return err
				}
				for _, name := range activeNames {
					active[name] = true
				}
			}

			for _, name := range names {
				if includeDeleted && !active[name] {
					fmt.Println(cli.SubtleStyle.Render(name + " (hidden)"))
					continue
				}
				fmt.Println(name)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&includeDeleted, "all", false, "include soft-deleted categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long: `Create a new expense category. If a soft-deleted category has the same
name, it is brought back instead, keeping its history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			category, err := l.AddCategory(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q ready (id: %d)", category.Name, category.ID)))
			return nil
		},
	}
}

func removeCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Hide a category",
		Long: `Soft-delete a category: it disappears from pickers and grouped views,
but its expenses stay on record. Adding an expense under the same name, or
'outlay undo', brings it back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := l.SoftDeleteCategory(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q hidden. 'outlay undo' reverts this.", args[0])))
			return nil
		},
	}
}

func purgeCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <name>",
		Short: "Permanently delete a category and its expenses",
		Long: `Permanently delete a category. Every expense recorded under it is
deleted with it. If the category still has expenses you are asked to
confirm first. 'outlay undo' reverts the most recent deletion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			err = l.HardDeleteCategory(ctx, name, yes)
			if errors.Is(err, ledger.ErrNeedsConfirmation) {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Deleting %q will also delete all of its expenses.", name)))
				if !promptYesNo("Proceed?") {
					fmt.Println(cli.SubtleStyle.Render("Aborted."))
					return nil
				}
				err = l.HardDeleteCategory(ctx, name, true)
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q permanently deleted. 'outlay undo' reverts this.", name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent category deletion",
		Long: `Restore the category removed by the most recent deletion, along with
every expense that was deleted with it. Only the latest deletion can be
undone; with nothing to undo this does nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, cleanup, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			restored, err := l.UndoLastCategoryDeletion(ctx)
			if err != nil {
				return err
			}
			if !restored {
				fmt.Println(cli.InfoStyle.Render("Nothing to undo."))
				return nil
			}

			fmt.Println(cli.FormatSuccess("Last category deletion undone"))
			return nil
		},
	}
}

func promptYesNo(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
