package commands

import (
	"context"
	"log/slog"
	"os"
	"waterbill-backend/lib/restyutil"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/lib/telemetry"
	"waterbill-backend/services/bills"
	"waterbill-backend/services/bills/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	debug      bool
	configPath string
	settings   Settings
)

var rootCmd = &cobra.Command{
	Use:          "waterbill",
	Short:        "waterbill looks up water bills on the BS&A online payment portal and keeps their history.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)

		var err error
		settings, err = LoadSettings(configPath)
		if err != nil {
			return err
		}
		if debug {
			output, err := restyutil.NewFilesystemOutput("<dev_state>/resty")
			if err != nil {
				slog.Warn("traffic dumps disabled", "err", err)
				return nil
			}
			settings.Browser.Traffic = output
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level and dump portal traffic to <dev_state>/resty.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file, <name>.local.json5 next to it overrides it.")
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newClient() (*bsaonline.Client, error) {
	return bsaonline.NewClient(settings.Portal, settings.Browser)
}

func openService() (bills.Service, func(), error) {
	database, err := settings.Database.OpenDB(db.Schema)
	if err != nil {
		return bills.Service{}, nil, err
	}
	client, err := newClient()
	if err != nil {
		database.Close()
		return bills.Service{}, nil, err
	}
	service := bills.NewService(database, client, settings.Cooldown)
	return service, func() { database.Close() }, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
