package chunk

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var putHashMethod string
var putMix bool

var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Hash a file and upload it as a chunk",
	Long: `Put computes the chunk id for file's contents locally, then uploads
the bytes to the server under that id. Use "-" for file to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putHashMethod, "hash", string(objid.HashSHA256), "Hash method: sha256|sha512|keccak256|blake2s256|blake3")
	putCmd.Flags().BoolVar(&putMix, "mix", false, "Embed the plaintext length in the chunk id (mix chunk)")
}

func runPut(cmd *cobra.Command, args []string) error {
	data, err := cmdutil.ReadIn(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	method := objid.HashMethod(putHashMethod)
	var chunkID objid.ChunkId
	if putMix {
		chunkID, err = objid.CalcMixChunkIDFromBytes(method, data)
	} else {
		chunkID, err = objid.CalcChunkIDFromBytes(method, data)
	}
	if err != nil {
		return fmt.Errorf("compute chunk id: %w", err)
	}

	if err := cmdutil.Client().PushChunk(context.Background(), chunkID, data); err != nil {
		return fmt.Errorf("push chunk: %w", err)
	}
	cmdutil.PrintSuccess("%s", chunkID)
	return nil
}
