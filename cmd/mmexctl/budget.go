package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mmex/internal/cli"
	"mmex/internal/core"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage yearly and monthly budgets",
	}
	cmd.AddCommand(
		budgetListCmd(),
		budgetCreateCmd(),
		budgetCopyCmd(),
		budgetRenameCmd(),
		budgetDeleteCmd(),
		budgetSetCmd(),
		budgetShowCmd(),
		budgetEntriesCmd(),
		budgetUnsetCmd(),
	)
	return cmd
}

func budgetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			budgets, err := app.Budgets.List(cmd.Context())
			if err != nil {
				return err
			}
			t := cli.NewTable(cmd.OutOrStdout(), "ID", "Name", "Kind")
			for _, b := range budgets {
				kind := "yearly"
				if b.IsMonthly() {
					kind = "monthly"
				}
				t.Row(b.ID, b.Name, kind)
			}
			return t.Flush()
		},
	}
}

func budgetCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create YEAR [MONTH]",
		Short: "Create an empty budget for a year or a month",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			month := 0
			if len(args) == 2 {
				if month, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid month %q", args[1])
				}
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			b, err := app.Budgets.Create(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created budget %s (id %d)", b.Name, b.ID)))
			return nil
		},
	}
}

func budgetCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy ID NAME",
		Short: "Copy a budget and its entries under a new period name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			b, err := app.Budgets.Copy(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Copied to budget %s (id %d)", b.Name, b.ID)))
			return nil
		},
	}
}

func budgetRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			b, err := app.Budgets.Rename(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Renamed to "+b.Name))
			return nil
		},
	}
}

func budgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a budget and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			if err := app.Budgets.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted budget %d", id)))
			return nil
		},
	}
}

func budgetSetCmd() *cobra.Command {
	var (
		category, subcategory int64
		frequency, amount     string
	)
	cmd := &cobra.Command{
		Use:     "set ID",
		Short:   "Set the estimate for a category",
		Example: "  mmexctl budget set 3 --category 2 --frequency Monthly --amount -120",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			freq, err := core.ParseBudgetFrequency(frequency)
			if err != nil {
				return err
			}
			value, err := core.ParseSignedMoney(amount)
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			e, err := app.Budgets.SetEntry(cmd.Context(), core.BudgetEntry{
				BudgetID:      id,
				CategoryID:    category,
				SubcategoryID: subcategory,
				Frequency:     freq,
				Amount:        value,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %s", e.Frequency, e.Amount)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().Int64Var(&subcategory, "subcategory", 0, "subcategory id")
	cmd.Flags().StringVar(&frequency, "frequency", string(core.BudgetMonthly), "estimate frequency")
	cmd.Flags().StringVar(&amount, "amount", "", "amount per frequency period; expenses are negative")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func budgetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Compare a budget with the actual amounts of its period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			perf, err := app.Budgets.Performance(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", cli.FormatTitle("Budget "+perf.Budget.Name), cli.SubtleStyle.Render(perf.From+" .. "+perf.To))
			t := cli.NewTable(out, "Category", "Estimated", "Actual", "Difference")
			for _, l := range perf.Lines {
				t.Row(l.Name, l.Estimated, l.Actual, cli.FormatMoney(l.Difference))
			}
			return t.Flush()
		},
	}
}

func budgetEntriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entries ID",
		Short: "List the estimates of a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			entries, err := app.Budgets.Entries(cmd.Context(), id)
			if err != nil {
				return err
			}
			names, err := app.Repo.CategoryNames(cmd.Context())
			if err != nil {
				return err
			}
			t := cli.NewTable(cmd.OutOrStdout(), "Entry", "Category", "Frequency", "Amount")
			for _, e := range entries {
				t.Row(e.ID, names.Name(e.CategoryID, e.SubcategoryID), e.Frequency, cli.FormatMoney(e.Amount))
			}
			return t.Flush()
		},
	}
}

func budgetUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset ID ENTRY",
		Short: "Remove one estimate from a budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			entryID, err := parseID(args[1])
			if err != nil {
				return err
			}
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			if err := app.Budgets.DeleteEntry(cmd.Context(), id, entryID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed entry %d from budget %d", entryID, id)))
			return nil
		},
	}
}
