package cmd

import (
	"networkinfo/internal/tui"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "live terminal view of the network state",
	RunE: func(_ *cobra.Command, _ []string) error {
		app := startApp(true, false, nil)
		if err := app.Start(); err != nil {
			return err
		}
		defer app.Shutdown()

		return tui.Watch(app.Engine, app.Config.DNS.ExpectedServer)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
