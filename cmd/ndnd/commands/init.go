package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/buckyos/ndnd/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initDeviceID string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample ndnd configuration file with default values, a fresh
random tunnel auth secret, and the given device id.

By default, the configuration file is created at $XDG_CONFIG_HOME/ndnd/config.yaml.
Use --config to specify a custom path.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initDeviceID, "device-id", "", "This stack's device id (hostname or did: form)")
	initCmd.MarkFlagRequired("device-id")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generate auth secret: %w", err)
	}

	cfg := config.GetDefaultConfig()
	cfg.Tunnel.DeviceID = initDeviceID
	cfg.Tunnel.AuthSecret = hex.EncodeToString(secret)

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Start the daemon with: ndnd run --config %s\n", configPath)
	return nil
}
