// Package object implements object get/put commands against a remote
// ndnd stack's NDN HTTP server.
package object

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for object operations.
var Cmd = &cobra.Command{
	Use:   "object",
	Short: "Fetch and publish NDN objects (containers)",
	Long: `Objects are content-addressed containers: chunk lists, object arrays,
object maps, and similar structures described by their own ObjId.

Examples:
  # Fetch an object's canonical body
  ndnctl object get mID9vQ...-arr

  # Fetch a sub-path inside a trie/path object
  ndnctl object get mID9vQ...-trie /a/b/c

  # Publish a canonical object body
  ndnctl object put mID9vQ...-arr ./array.json`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(putCmd)
}
