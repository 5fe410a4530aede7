package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the monitor until interrupted",
	Run:   serve,
}

func serve(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := startApp(true, true, nil)
	if err := app.Start(); err != nil {
		zap.S().Errorw("couldn't start networkinfo", "error", err)
		return
	}

	go func() {
		for snap := range app.Engine.Updates() {
			zap.S().Debugw("snapshot updated", "cycle", snap.CycleID, "ssid", snap.SSID, "trigger", snap.Trigger)
		}
	}()

	<-ctx.Done()
	zap.S().Info("signal received, shutting down")
	app.Shutdown()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
