package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"networkinfo/backend"
	"networkinfo/internal/config"
	"networkinfo/internal/storage"
	logg "networkinfo/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed version.txt
var rawVersion string

var (
	configPath = ""
	skipConfig = false
	verbose    = false
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "networkinfo",
	Short: "Network state monitor and per-SSID DNS switcher for macOS.",
	Long: "networkinfo polls public IP and location, local IP, Wi-Fi SSID, DNS resolvers, VPN tunnels " +
		"and local DNS resolver daemons, and rewrites the system DNS servers when the Wi-Fi network changes.",
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func version() string {
	return strings.TrimSpace(rawVersion)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yml"
	}
	return filepath.Join(dir, storage.AppName, "settings.yml")
}

// resolveConfig or exit with error
func resolveConfig() *config.Config {
	cfg, err := config.New(configPath, skipConfig)
	if err != nil {
		fmt.Printf("unable to initialize config: %s\n", err.Error())
		os.Exit(1)
	}

	if verbose {
		cfg.Logger.Level = "debug"
	}
	return cfg
}

// initLogger installs the global zap logger and points logrus at the same
// sinks. console=false keeps stdout clean for machine readable output.
func initLogger(cfg *config.Config, console bool) {
	if cfg.Logger.Dir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.Logger.Dir = filepath.Join(dir, storage.AppName, "logs")
		}
	}
	if !console {
		cfg.Logger.Console = false
	}

	zap.ReplaceGlobals(logg.New(cfg.Logger).Desugar())
	logg.ConfigureLogrus(cfg.Logger)

	if skipConfig {
		zap.S().Info("skipped file-based configuration, using only ENV")
	}
}

// startApp resolves config, initializes logging and assembles the app.
func startApp(live, console bool, tweak func(*config.Config)) *backend.App {
	cfg := resolveConfig()
	if tweak != nil {
		tweak(cfg)
	}
	initLogger(cfg, console)

	app, err := backend.StartupApp(cfg, backend.Options{Version: version(), Live: live})
	if err != nil {
		fmt.Printf("unable to start: %s\n", err.Error())
		os.Exit(1)
	}
	return app
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to yml settings")
	rootCmd.PersistentFlags().BoolVar(&skipConfig, "skip-config", false, "skips the settings file and uses ENV only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Version = version()
}
