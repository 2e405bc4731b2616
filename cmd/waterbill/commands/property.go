package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	propertyAccount string
	propertyOwner   string
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "The 'property' subcommand maintains the properties that are refreshed.",
}

func init() {
	propertyAddCmd.Flags().StringVar(&propertyAccount, "account", "", "The account number, if known.")
	propertyAddCmd.Flags().StringVar(&propertyOwner, "owner", "", "The owner name, if known.")

	propertyCmd.AddCommand(propertyAddCmd, propertyListCmd, propertyEnableCmd, propertyDisableCmd)
	rootCmd.AddCommand(propertyCmd)
}

var propertyAddCmd = &cobra.Command{
	Use:   "add <address> [--account <number>] [--owner <name>]",
	Short: "Adds a property.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		property, err := service.AddProperty(cmd.Context(), strings.Join(args, " "), propertyAccount, propertyOwner)
		if err != nil {
			return err
		}
		fmt.Println(property.ID)
		return nil
	},
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all properties.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDb, err := openService()
		if err != nil {
			return err
		}
		defer closeDb()

		properties, err := service.ListProperties(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Address", "Account", "Owner", "Active"})
		for _, p := range properties {
			t.AppendRow(table.Row{p.ID, p.Address, orDash(p.AccountNumber), orDash(p.OwnerName), p.Active})
		}
		t.Render()
		return nil
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <property id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeDb, err := openService()
			if err != nil {
				return err
			}
			defer closeDb()
			return service.SetActive(cmd.Context(), args[0], active)
		},
	}
}

var propertyEnableCmd = setActiveCmd("enable", "Includes a property in refreshes again.", true)
var propertyDisableCmd = setActiveCmd("disable", "Excludes a property from refreshes, keeping its history.", false)
