package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every chunk row in the local store's index",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	Cmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	items, err := chunkStore.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Chunk ID", "State", "Size", "Updated"})
	for _, it := range items {
		table.Append([]string{
			it.ChunkID,
			string(it.State),
			fmt.Sprintf("%d", it.ChunkSize),
			time.UnixMilli(it.UpdateTime).Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}
