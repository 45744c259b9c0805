package chunk

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/cmd/ndnctl/cmdutil"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

var idHashMethod string
var idMix bool

var idCmd = &cobra.Command{
	Use:   "id <file>",
	Short: "Compute a chunk id without uploading",
	Args:  cobra.ExactArgs(1),
	RunE:  runID,
}

func init() {
	idCmd.Flags().StringVar(&idHashMethod, "hash", string(objid.HashSHA256), "Hash method: sha256|sha512|keccak256|blake2s256|blake3")
	idCmd.Flags().BoolVar(&idMix, "mix", false, "Embed the plaintext length in the chunk id (mix chunk)")
}

func runID(cmd *cobra.Command, args []string) error {
	data, err := cmdutil.ReadIn(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	method := objid.HashMethod(idHashMethod)
	var chunkID objid.ChunkId
	if idMix {
		chunkID, err = objid.CalcMixChunkIDFromBytes(method, data)
	} else {
		chunkID, err = objid.CalcChunkIDFromBytes(method, data)
	}
	if err != nil {
		return fmt.Errorf("compute chunk id: %w", err)
	}

	fmt.Println(chunkID.String())
	return nil
}
