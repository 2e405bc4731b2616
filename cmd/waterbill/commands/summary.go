package commands

import (
	"fmt"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var summaryThreshold string

func init() {
	summaryCmd.Flags().StringVar(&summaryThreshold, "threshold", "", "Also list properties whose latest amount due is at least this much.")
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary [--threshold <amount>]",
	Short: "Summarizes the latest bill of every active property.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var threshold *decimal.Decimal
		if summaryThreshold != "" {
			parsed, err := billing.ParseCurrency(summaryThreshold)
			if err != nil {
				return fmt.Errorf("threshold: %w", err)
			}
			threshold = &parsed
		}

		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		today := timezone.Today()
		summary, err := service.Summary(cmd.Context(), today)
		if err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%d properties", summary.Properties))
		t.AppendHeader(table.Row{"Status", "Count", "Amount"})
		t.AppendRows([]table.Row{
			{billing.StatusOverdue, summary.Overdue, formatMoney(&summary.OverdueAmount)},
			{billing.StatusDueSoon, summary.DueSoon, formatMoney(&summary.DueSoonAmount)},
			{billing.StatusCurrent, summary.Current, ""},
			{billing.StatusPaid, summary.Paid, ""},
			{billing.StatusUnknown, summary.Unknown, ""},
			{"no bill", summary.NoBill, ""},
		})
		t.Render()

		if threshold == nil {
			return nil
		}
		alerts, err := service.Threshold(cmd.Context(), *threshold)
		if err != nil {
			return err
		}

		at := newTable()
		at.SetTitle(fmt.Sprintf("At or above %s", formatMoney(threshold)))
		at.AppendHeader(table.Row{"Address", "Account", "Amount due", "Due date", "Status"})
		for _, a := range alerts {
			at.AppendRow(table.Row{
				a.Property.Address,
				orDash(a.Bill.AccountNumber),
				formatMoney(&a.Bill.AmountDue),
				formatDate(a.Bill.DueDate),
				a.Bill.Status(today),
			})
		}
		at.Render()
		return nil
	},
}
