package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"networkinfo/internal/dnsconf"
	"networkinfo/internal/storage"

	"github.com/spf13/cobra"
)

var dnsCmd = &cobra.Command{
	Use:   "dns",
	Short: "manage the SSID to DNS servers mapping",
}

var dnsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "print the mapping file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path())
		return nil
	},
}

var dnsListCmd = &cobra.Command{
	Use:   "list",
	Short: "list configured networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		entries, err := store.Entries()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no networks configured in", store.Path())
			return nil
		}
		for _, e := range entries {
			servers := e.ServersString()
			if servers == "" {
				servers = "(network defaults)"
			}
			fmt.Fprintf(out, "%s = %s\n", e.SSID, servers)
		}
		return nil
	},
}

var dnsSetCmd = &cobra.Command{
	Use:   "set <ssid> [servers...]",
	Short: "set the DNS servers for a network, none means network defaults",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Set(args[0], args[1:]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s in %s\n", args[0], store.Path())
		return nil
	},
}

var dnsRemoveCmd = &cobra.Command{
	Use:   "remove <ssid>",
	Short: "remove a network from the mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		removed, err := store.Remove(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s is not configured", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

// openStore opens the mapping file without starting the engine.
func openStore() (*dnsconf.Store, error) {
	cfg := resolveConfig()

	path := cfg.DNS.ConfigFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, storage.AppName, dnsconf.FileName)
	} else {
		path = storage.ExpandHome(path)
	}

	legacy := ""
	if cfg.DNS.LegacyFile != "" {
		legacy = storage.ExpandHome(cfg.DNS.LegacyFile)
	}

	store := dnsconf.NewStore(path, legacy)
	if err := store.Ensure(); err != nil {
		return nil, err
	}
	return store, nil
}

func init() {
	dnsCmd.AddCommand(dnsPathCmd, dnsListCmd, dnsSetCmd, dnsRemoveCmd)
	rootCmd.AddCommand(dnsCmd)
}
