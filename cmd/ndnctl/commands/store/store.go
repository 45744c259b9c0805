// Package store implements local chunk-store introspection commands.
// Unlike object/chunk, these operate directly on the on-disk store
// named by --config rather than going over the NDN HTTP wire, so they
// work even when ndnd isn't running.
package store

import (
	"github.com/spf13/cobra"
)

var configFile string

// Cmd is the parent command for local chunk store introspection.
var Cmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the local chunk store directly",
	Long: `Store commands open the on-disk chunk store named by --config (or
the default config path) directly, without going through a running
ndnd daemon.

Examples:
  ndnctl store stat mChunk9vQ...
  ndnctl store list
  ndnctl store disable mChunk9vQ... --force`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to ndnd's config file (defaults to the standard location)")
	Cmd.AddCommand(statCmd)
}
