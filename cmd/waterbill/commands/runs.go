package commands

import (
	"time"
	"waterbill-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsLimit int

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "How many runs to show, 0 shows all of them.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--limit <n>]",
	Short: "Shows the most recent refresh runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		runs, err := service.Runs(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Duration", "Success", "Scraped", "Details", "Errors"})
		for _, r := range runs {
			duration := "-"
			if r.CompletedAt != nil {
				duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			t.AppendRow(table.Row{
				r.StartedAt.In(timezone.Location).Format(time.DateTime),
				duration,
				r.Success,
				r.PropertiesScraped,
				r.Details,
				r.ErrorMessage,
			})
		}
		t.Render()
		return nil
	},
}
