package commands

import (
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/spf13/cobra"
)

var (
	produceMempoolPath string
	produceChainOut    string
	produceMempoolOut  string
	blocksToMine       uint32
)

var produceCmd = &cobra.Command{
	Use:   "produce-blocks",
	Short: "Mine pending mempool transactions into new blocks",
	RunE:  runProduceBlocks,
}

func init() {
	rootCmd.AddCommand(produceCmd)
	produceCmd.Flags().StringVar(&produceMempoolPath, "mempool", "", "File storing the initial mempool.")
	produceCmd.Flags().StringVar(&produceChainOut, "blockchain-state-output", "", "File storing the final state of the blockchain.")
	produceCmd.Flags().StringVar(&produceMempoolOut, "mempool-output", "", "File storing the final mempool.")
	produceCmd.Flags().Uint32Var(&blocksToMine, "blocks-to-mine", 0, "Number of blocks to mine.")
	produceCmd.MarkFlagRequired("mempool")
	produceCmd.MarkFlagRequired("blockchain-state-output")
	produceCmd.MarkFlagRequired("mempool-output")
	produceCmd.MarkFlagRequired("blocks-to-mine")
}

func runProduceBlocks(cmd *cobra.Command, args []string) error {
	if blocksToMine < 1 {
		return fmt.Errorf("blocks-to-mine must be a positive integer, got %d", blocksToMine)
	}

	st, err := newState()
	if err != nil {
		return err
	}

	txs, err := storage.ReadTransactions(produceMempoolPath)
	if err != nil {
		return fmt.Errorf("loading mempool: %w", err)
	}

	for _, tx := range txs {
		if err := st.SubmitTransaction(tx); err != nil {
			return fmt.Errorf("invalid mempool transaction %s: %w", tx, err)
		}
	}

	produced, err := st.ProduceBlocks(cmd.Context(), blocksToMine)
	if err != nil {
		return err
	}

	if err := st.Persist(storage.NewDisk(produceChainOut)); err != nil {
		return fmt.Errorf("writing blockchain state: %w", err)
	}

	if err := storage.WriteTransactions(produceMempoolOut, st.RetrieveMempool()); err != nil {
		return fmt.Errorf("writing mempool: %w", err)
	}

	if produced < blocksToMine {
		log.Warnw("mempool drained before all requested blocks were produced", "traceid", traceID, "produced", produced, "requested", blocksToMine)
	}

	fmt.Printf("produced %d of %d requested blocks, chain height %d\n", produced, blocksToMine, st.Height())

	return nil
}
