package commands

import (
	"fmt"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	lookupAccount string
	lookupAddress string
)

func init() {
	lookupCmd.Flags().StringVar(&lookupAccount, "account", "", "The account number to search for first.")
	lookupCmd.Flags().StringVar(&lookupAddress, "address", "", "The service address to fall back to.")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [--account <number>] [--address <address>]",
	Short: "Looks up the current bill of one account without storing it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		result := client.Lookup(cmd.Context(), bsaonline.Identifier{
			AccountNumber: lookupAccount,
			Address:       lookupAddress,
		})
		switch result.Outcome {
		case bsaonline.OutcomeNotFound:
			return fmt.Errorf("no bill found: %w", result.Err)
		case bsaonline.OutcomeFailed:
			return fmt.Errorf("lookup failed: %w", result.Err)
		}

		printSnapshot(result.Snapshot, string(result.Strategy))
		if !result.Correction.Empty() {
			printCorrection(result.Correction)
		}
		return nil
	},
}

func printSnapshot(snapshot billing.Snapshot, strategy string) {
	t := newTable()
	t.AppendRows([]table.Row{
		{"Account", orDash(snapshot.AccountNumber)},
		{"Address", orDash(snapshot.Address)},
		{"Owner", orDash(snapshot.OwnerName)},
		{"Amount due", formatMoney(&snapshot.AmountDue)},
		{"Due date", formatDate(snapshot.DueDate)},
		{"Status", snapshot.Status(timezone.Today())},
		{"Statement date", formatDate(snapshot.StatementDate)},
		{"Previous balance", formatMoney(snapshot.PreviousBalance)},
		{"Current charges", formatMoney(snapshot.CurrentCharges)},
		{"Late fees", formatMoney(snapshot.LateFees)},
		{"Payments received", formatMoney(snapshot.PaymentsReceived)},
		{"Water usage", formatUsage(snapshot.WaterUsage)},
		{"Found by", orDash(strategy)},
	})
	for _, c := range snapshot.Charges {
		t.AppendRow(table.Row{"  " + c.Name, formatMoney(&c.Amount)})
	}
	t.Render()
}

func printCorrection(correction bsaonline.Correction) {
	t := newTable()
	t.SetTitle("Portal reports")
	if correction.AccountNumber != "" {
		t.AppendRow(table.Row{"Account", correction.AccountNumber})
	}
	if correction.Address != "" {
		t.AppendRow(table.Row{"Address", fmt.Sprintf("%s (%.0f%% similar)", correction.Address, correction.AddressSimilarity*100)})
	}
	if correction.OwnerName != "" {
		t.AppendRow(table.Row{"Owner", correction.OwnerName})
	}
	t.Render()
}
