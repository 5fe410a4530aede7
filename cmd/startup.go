package cmd

import (
	"fmt"

	"networkinfo/backend"
	"networkinfo/internal/executor"
	"networkinfo/internal/storage"
	"networkinfo/pkg/startup"

	"github.com/spf13/cobra"
)

var startupCmd = &cobra.Command{
	Use:   "startup",
	Short: "start networkinfo at login",
}

func startupManager() (startup.StartupManager, error) {
	entry, err := startup.CurrentExecutable(startup.DefaultLabel, "serve")
	if err != nil {
		return nil, err
	}
	return startup.NewStartupManager(entry, executor.New(executor.DefaultTimeout)), nil
}

// rememberStartAtLogin mirrors the login item state into the preferences.
func rememberStartAtLogin(enabled bool) error {
	dir, err := storage.NewAppStorage(storage.AppName)
	if err != nil {
		return err
	}
	path := dir.Path(backend.PreferencesFile)
	prefs, err := backend.ReadPreferencesFile(path)
	if err != nil {
		prefs = backend.DefaultPreferences()
	}
	prefs.Application.StartAtLogin = enabled
	return prefs.WritePreferencesFile(path)
}

var startupEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "install the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := startupManager()
		if err != nil {
			return err
		}
		if err := m.Enable(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "enabled:", m.Location())
		return rememberStartAtLogin(true)
	},
}

var startupDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "remove the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := startupManager()
		if err != nil {
			return err
		}
		if err := m.Disable(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "disabled")
		return rememberStartAtLogin(false)
	},
}

var startupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show whether the login item is installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := startupManager()
		if err != nil {
			return err
		}
		state := "disabled"
		if m.IsEnabled() {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", state, m.Location())
		return nil
	},
}

func init() {
	startupCmd.AddCommand(startupEnableCmd, startupDisableCmd, startupStatusCmd)
	rootCmd.AddCommand(startupCmd)
}
