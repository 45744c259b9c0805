// Package chunk implements chunk get/put/id commands against a remote
// ndnd stack's NDN HTTP server.
package chunk

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for chunk operations.
var Cmd = &cobra.Command{
	Use:   "chunk",
	Short: "Fetch and publish content-addressed chunks",
	Long: `Chunks are the leaf content-addressed byte blobs that chunk lists
and objects reference. A chunk id embeds its hash method and, for mix
chunks, its plaintext length.

Examples:
  # Compute the chunk id for a local file without uploading it
  ndnctl chunk id ./payload.bin

  # Upload a file, printing the chunk id it was stored under
  ndnctl chunk put ./payload.bin

  # Fetch a chunk's bytes, verifying its digest
  ndnctl chunk get mChunk9vQ... -f ./payload.bin`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(putCmd)
	Cmd.AddCommand(idCmd)
}
