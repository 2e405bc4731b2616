package commands

import (
	"errors"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/lib/timezone"
	"waterbill-backend/services/bills"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var refreshProperty string

func init() {
	refreshCmd.Flags().StringVar(&refreshProperty, "property", "", "Refresh only this property id.")
	rootCmd.AddCommand(refreshCmd)
}

var errRefreshFailed = errors.New("some properties failed to refresh")

var refreshCmd = &cobra.Command{
	Use:   "refresh [--property <id>]",
	Short: "Looks up and stores the current bill of every active property (or one).",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		var refreshed []bills.Refreshed
		if refreshProperty != "" {
			r, err := service.Refresh(cmd.Context(), refreshProperty)
			if err != nil {
				return err
			}
			refreshed = []bills.Refreshed{r}
		} else {
			refreshed, err = service.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
		}

		today := timezone.Today()
		failed := false

		t := newTable()
		t.AppendHeader(table.Row{"Address", "Outcome", "Amount due", "Due date", "Status", "Error"})
		for _, r := range refreshed {
			row := table.Row{r.Property.Address, r.Result.Outcome, "-", "-", "-", ""}
			if r.Bill != nil {
				row[2] = formatMoney(&r.Bill.AmountDue)
				row[3] = formatDate(r.Bill.DueDate)
				row[4] = r.Bill.Status(today)
			}
			switch {
			case r.Err != nil:
				row[5] = r.Err.Error()
				failed = true
			case r.Result.Outcome == bsaonline.OutcomeFailed:
				row[5] = r.Result.Err.Error()
				failed = true
			}
			t.AppendRow(row)
		}
		t.Render()

		if failed {
			return errRefreshFailed
		}
		return nil
	},
}
