package commands

import (
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/spf13/cobra"
)

var (
	proofBlockNumber uint64
	proofTxHash      string
	proofOutput      string
)

var proofCmd = &cobra.Command{
	Use:   "generate-inclusion-proof",
	Short: "Generate a merkle inclusion proof for a transaction in a block",
	RunE:  runGenerateInclusionProof,
}

func init() {
	rootCmd.AddCommand(proofCmd)
	proofCmd.Flags().Uint64Var(&proofBlockNumber, "block-number", 0, "1-based number of the block holding the transaction.")
	proofCmd.Flags().StringVar(&proofTxHash, "transaction-hash", "", "Hash of the transaction to prove.")
	proofCmd.Flags().StringVar(&proofOutput, "proof-output", "", "File to store the inclusion proof.")
	proofCmd.MarkFlagRequired("block-number")
	proofCmd.MarkFlagRequired("transaction-hash")
	proofCmd.MarkFlagRequired("proof-output")
}

func runGenerateInclusionProof(cmd *cobra.Command, args []string) error {
	st, err := newState()
	if err != nil {
		return err
	}

	proof, err := st.GenerateProof(proofBlockNumber, proofTxHash)
	if err != nil {
		return err
	}

	if err := storage.WriteProof(proofOutput, proof); err != nil {
		return fmt.Errorf("writing proof: %w", err)
	}

	fmt.Printf("proof for transaction %s in block %d written to %s\n", proofTxHash, proofBlockNumber, proofOutput)

	return nil
}
