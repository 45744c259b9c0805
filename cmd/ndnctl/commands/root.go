// Package commands implements the CLI commands for ndnctl, the
// operator client for an ndnd stack.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	chunkcmd "github.com/buckyos/ndnd/cmd/ndnctl/commands/chunk"
	configcmd "github.com/buckyos/ndnd/cmd/ndnctl/commands/config"
	objectcmd "github.com/buckyos/ndnd/cmd/ndnctl/commands/object"
	storecmd "github.com/buckyos/ndnd/cmd/ndnctl/commands/store"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ndnctl",
	Short: "ndnctl - operator client for an ndnd stack",
	Long: `ndnctl talks to a running ndnd stack over the NDN HTTP wire
convention and inspects its local chunk store.

Use "ndnctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.Server, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8765", "ndnd HTTP server base URL")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(objectcmd.Cmd)
	rootCmd.AddCommand(chunkcmd.Cmd)
	rootCmd.AddCommand(storecmd.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
