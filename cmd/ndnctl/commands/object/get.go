package object

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var getOut string

var getCmd = &cobra.Command{
	Use:   "get <obj-id> [sub-path]",
	Short: "Fetch an object's canonical body",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOut, "output-file", "f", "-", "Write the body to this path (\"-\" for stdout)")
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := objid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse object id: %w", err)
	}
	subPath := ""
	if len(args) == 2 {
		subPath = args[1]
	}

	body, headers, err := cmdutil.Client().GetObject(context.Background(), id, subPath)
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}
	if err := cmdutil.WriteOut(getOut, body); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if getOut != "-" {
		cmdutil.PrintSuccess("wrote %d bytes (obj_id %s, data_size %d) to %s", len(body), headers.ObjID, headers.DataSize, getOut)
	}
	return nil
}
