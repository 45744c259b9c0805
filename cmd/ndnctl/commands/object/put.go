package object

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var putCmd = &cobra.Command{
	Use:   "put <obj-id> <file>",
	Short: "Publish a canonical object body under its id",
	Long: `Publish uploads the exact bytes in file as the object body addressed
by obj-id. The server verifies the bytes hash to obj-id before accepting
them; use "-" for file to read from stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

func runPut(cmd *cobra.Command, args []string) error {
	id, err := objid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse object id: %w", err)
	}
	body, err := cmdutil.ReadIn(args[1])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := cmdutil.Client().PutObject(context.Background(), id, body); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	cmdutil.PrintSuccess("published %s (%d bytes)", id, len(body))
	return nil
}
