package store

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/pkg/config"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var statCmd = &cobra.Command{
	Use:   "stat <chunk-id>",
	Short: "Print a chunk's state in the local store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	chunkID, err := objid.ParseChunkID(args[0])
	if err != nil {
		return fmt.Errorf("parse chunk id: %w", err)
	}

	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	chunkStore, err := config.BuildChunkStore(ctx, cfg.ChunkStore, nil)
	if err != nil {
		return fmt.Errorf("open chunk store: %w", err)
	}
	defer chunkStore.Close()

	state, err := chunkStore.QueryState(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("query state: %w", err)
	}

	fmt.Printf("%s\t%s\n", chunkID, state)
	return nil
}
