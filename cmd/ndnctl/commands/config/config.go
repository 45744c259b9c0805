// Package config implements config introspection commands: printing
// the resolved configuration and its JSON schema.
package config

import (
	"github.com/spf13/cobra"
)

var configFile string

// Cmd is the parent command for configuration introspection.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect ndnd's configuration",
}

func init() {
	Cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to ndnd's config file (defaults to the standard location)")
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(showCmd)
}
