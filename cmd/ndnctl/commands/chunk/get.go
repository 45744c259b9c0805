package chunk

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var getOut string

var getCmd = &cobra.Command{
	Use:   "get <chunk-id>",
	Short: "Fetch a chunk's bytes, verifying its digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOut, "output-file", "f", "-", "Write the bytes to this path (\"-\" for stdout)")
}

func runGet(cmd *cobra.Command, args []string) error {
	chunkID, err := objid.ParseChunkID(args[0])
	if err != nil {
		return fmt.Errorf("parse chunk id: %w", err)
	}
	data, err := cmdutil.Client().PullChunk(context.Background(), chunkID)
	if err != nil {
		return fmt.Errorf("pull chunk: %w", err)
	}
	if err := cmdutil.WriteOut(getOut, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if getOut != "-" {
		cmdutil.PrintSuccess("wrote %d verified bytes to %s", len(data), getOut)
	}
	return nil
}
