package cmd

import (
	"bytes"
	"fmt"
	"io"

	"networkinfo/internal/config"
	"networkinfo/internal/models"
	"networkinfo/internal/tui"
	"networkinfo/pkg/jsonhelper"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	statusOutput = "text"
	statusApply  = false

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "run one refresh and print the network state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := startApp(false, false, func(cfg *config.Config) {
				cfg.DNS.Apply = statusApply
			})
			defer app.Shutdown()

			snap := app.Engine.RefreshOnce(cmd.Context())
			return writeSnapshot(cmd.OutOrStdout(), snap, statusOutput, app.Config.DNS.ExpectedServer)
		},
	}
)

func writeSnapshot(w io.Writer, snap *models.Snapshot, format, expectedDNS string) error {
	switch format {
	case "text", "":
		_, err := io.WriteString(w, tui.Text(tui.Lines(snap, expectedDNS)))
		return err
	case "json":
		b, err := jsonhelper.EncodeIndent(snap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(snap); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml, toml)", format)
	}
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "text, json, yaml or toml")
	statusCmd.Flags().BoolVar(&statusApply, "apply", false, "apply the configured DNS servers for the current SSID")
	rootCmd.AddCommand(statusCmd)
}
