package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as JSON",
	Long: `Show loads the config file (applying defaults and environment
overrides, as ndnd itself would) and prints the result as JSON.
The tunnel auth secret is redacted.`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Tunnel.AuthSecret != "" {
		cfg.Tunnel.AuthSecret = "[redacted]"
	}
	if cfg.ChunkStore.Remote.SecretAccessKey != "" {
		cfg.ChunkStore.Remote.SecretAccessKey = "[redacted]"
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
