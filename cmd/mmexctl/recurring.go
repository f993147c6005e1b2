package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mmex/internal/cli"
	"mmex/internal/core"
	"mmex/internal/services"
)

func nextOccurrenceCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next-occurrence DATE REPEATS",
		Short: "Show the dates a repeat code produces from DATE",
		Example: `  mmexctl next-occurrence 2024-01-31 3
  mmexctl next-occurrence 2024-01-31 103 -n 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := core.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("repeats must be an integer: %q", args[1])
			}
			code := core.RepeatCode(n)
			dates, err := core.Occurrences(date, code, count+1)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", cli.FormatTitle(code.String()), code.Mode())
			for _, d := range dates[1:] {
				fmt.Fprintln(out, core.FormatDate(d))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of occurrences after DATE")
	return cmd
}

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"bills"},
		Short:   "List, enter and skip recurring transactions",
	}
	cmd.AddCommand(recurringListCmd(), recurringEnterCmd(), recurringSkipCmd(), recurringPreviewCmd(), recurringProcessCmd())
	return cmd
}

func recurringListCmd() *cobra.Command {
	var dueOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring transactions by next payment date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			var items []services.RecurringListing
			if dueOnly {
				items, err = app.Recurring.Due(cmd.Context())
			} else {
				items, err = app.Recurring.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("No recurring transactions."))
				return nil
			}

			t := cli.NewTable(cmd.OutOrStdout(), "ID", "Payment", "Due", "Type", "Amount", "Frequency", "Left", "Status")
			for _, it := range items {
				left := "∞"
				if it.PaymentsLeft >= 0 {
					left = strconv.Itoa(it.PaymentsLeft)
				}
				t.Row(it.ID, app.Prefs.FormatDate(it.PaymentDate), app.Prefs.FormatDate(it.DueDate),
					it.Code, cli.FormatMoney(it.Amount), it.Frequency, left, cli.FormatDue(it.Due))
			}
			return t.Flush()
		},
	}
	cmd.Flags().BoolVar(&dueOnly, "due", false, "only show transactions due today or earlier")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func recurringEnterCmd() *cobra.Command {
	var amount, date string
	cmd := &cobra.Command{
		Use:   "enter ID",
		Short: "Enter the next occurrence as a transaction and advance the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var opts services.EnterOptions
			if amount != "" {
				if opts.Amount, err = core.ParseAmount(amount); err != nil {
					return err
				}
			}
			if date != "" {
				if opts.Date, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			res, err := app.Recurring.Enter(cmd.Context(), id, opts)
			if err != nil {
				return err
			}
			printEnterResult(cmd, app, res, fmt.Sprintf("Entered transaction %d on %s", res.TransactionID, app.Prefs.FormatDate(res.Date)))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "override the amount")
	cmd.Flags().StringVar(&date, "date", "", "override the transaction date (YYYY-MM-DD)")
	return cmd
}

func recurringSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip ID",
		Short: "Skip the next occurrence without entering it",
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

			res, err := app.Recurring.Skip(cmd.Context(), id)
			if err != nil {
				return err
			}
			printEnterResult(cmd, app, res, "Skipped "+app.Prefs.FormatDate(res.Date))
			return nil
		},
	}
}

func printEnterResult(cmd *cobra.Command, app *cli.App, res services.EnterResult, msg string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(msg))
	switch {
	case res.Finished:
		fmt.Fprintln(out, cli.SubtleStyle.Render("No payments left; the recurring transaction was removed."))
	case res.Next != nil:
		fmt.Fprintf(out, "Next payment: %s\n", app.Prefs.FormatDate(res.Next.PaymentDate))
	}
}

func recurringPreviewCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "preview ID",
		Short: "Show upcoming payment dates",
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

			dates, err := app.Recurring.Preview(cmd.Context(), id, count)
			if err != nil {
				return err
			}
			for _, d := range dates {
				fmt.Fprintln(cmd.OutOrStdout(), app.Prefs.FormatDate(d))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 12, "number of dates")
	return cmd
}

func recurringProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Enter every due silent transaction and list the manual ones awaiting confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			res, err := app.Processor.ProcessDue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Entered %d transaction(s)", len(res.Entered))))
			for _, e := range res.Entered {
				fmt.Fprintf(out, "  #%d → transaction %d on %s\n", e.RecurringID, e.TransactionID, app.Prefs.FormatDate(e.Date))
			}
			if res.Failed > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d recurring transaction(s) failed", res.Failed)))
			}
			if len(res.Pending) > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d awaiting confirmation:", len(res.Pending))))
				for _, p := range res.Pending {
					fmt.Fprintf(out, "  #%d %s %s (%s)\n", p.ID, app.Prefs.FormatDate(p.PaymentDate), p.Amount, p.Due.Label())
				}
			}
			return nil
		},
	}
}
