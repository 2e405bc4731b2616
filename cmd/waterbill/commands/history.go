package commands

import (
	"time"
	"waterbill-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "How many bills to show, 0 shows all of them.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <property id> [--limit <n>]",
	Short: "Shows the captured bills of a property, newest first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		property, err := service.GetProperty(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		history, err := service.History(cmd.Context(), property.ID, historyLimit)
		if err != nil {
			return err
		}

		today := timezone.Today()

		t := newTable()
		t.SetTitle(property.Address)
		t.AppendHeader(table.Row{"Captured", "Account", "Amount due", "Due date", "Status", "Late fees", "Usage"})
		for _, b := range history {
			t.AppendRow(table.Row{
				b.CapturedAt.In(timezone.Location).Format(time.DateTime),
				orDash(b.AccountNumber),
				formatMoney(&b.AmountDue),
				formatDate(b.DueDate),
				b.Status(today),
				formatMoney(b.LateFees),
				formatUsage(b.WaterUsage),
			})
		}
		t.Render()
		return nil
	},
}
