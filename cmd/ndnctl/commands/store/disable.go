package store

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/pkg/config"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var disableForce bool

var disableCmd = &cobra.Command{
	Use:   "disable <chunk-id>",
	Short: "Retire a chunk: keep its index row and bytes, refuse further reads",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisable,
}

func init() {
	disableCmd.Flags().BoolVarP(&disableForce, "force", "y", false, "Skip the confirmation prompt")
	Cmd.AddCommand(disableCmd)
}

func runDisable(cmd *cobra.Command, args []string) error {
	chunkID, err := objid.ParseChunkID(args[0])
	if err != nil {
		return fmt.Errorf("parse chunk id: %w", err)
	}

	if !disableForce {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Disable chunk %s", chunkID),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return fmt.Errorf("aborted")
		}
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

	if err := chunkStore.Disable(ctx, chunkID); err != nil {
		return fmt.Errorf("disable chunk: %w", err)
	}

	fmt.Printf("chunk %s disabled\n", chunkID)
	return nil
}
